package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/antigravity/bountyboard/internal/app"
)

const version = "1.0.0"

func main() {
	var (
		configPath  string
		showVersion bool
	)
	flag.StringVar(&configPath, "config", "", "配置文件路径 (JSON)")
	flag.BoolVar(&showVersion, "version", false, "显示版本")
	flag.Parse()

	if showVersion {
		fmt.Printf("bountyd %s\n", version)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "fatal: %v\n", r)
			os.Exit(1)
		}
	}()

	app.New(configPath).Run()
}
