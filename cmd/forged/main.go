package main

import (
	"flag"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/emailforge/emailforge/internal/config"
	"github.com/emailforge/emailforge/internal/daemon"
)

func main() {
	configFile := flag.String("f", "etc/emailforge.yaml", "config file path")
	flag.Parse()

	logx.DisableStat()

	var c config.Config
	conf.MustLoad(*configFile, &c, conf.UseEnv())
	c.MustSetUp()

	d, err := daemon.New(c)
	logx.Must(err)

	d.Start()
}
