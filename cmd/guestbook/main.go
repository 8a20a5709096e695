package main

import (
	"fmt"
	"os"

	"github.com/gookit/color"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "guestbook:", err)
		os.Exit(1)
	}
	if err := newRootCmd(newApp(cfg, os.Stdout)).Execute(); err != nil {
		msg := "Error:"
		if cfg.Colours {
			msg = color.Red.Render(msg)
		}
		fmt.Fprintln(os.Stderr, msg, err)
		os.Exit(1)
	}
}
