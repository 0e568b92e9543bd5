// FilePath: cmd/pipeline/main.go
package main

import (
	"fmt"
	"log"
	"os"

	tm "github.com/buger/goterm"
	"github.com/fieldpulse/pipeline/internal/config"
	"github.com/fieldpulse/pipeline/internal/server"
	"github.com/spf13/pflag"
	nuts "github.com/vaudience/go-nuts"
)

func main() {
	flags := pflag.NewFlagSet("pipeline", pflag.ExitOnError)
	config.BindFlags(flags)
	quiet := flags.Bool("no-logo", false, "skip clearing the console and drawing the logo")
	flags.Parse(os.Args[1:])

	if !*quiet {
		ClearConsole()
		DrawLogo()
	}
	nuts.InitVersion()

	cfg, err := config.Load(flags)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	nuts.L.Infof("[Main] Starting %s service v%s", cfg.Service, nuts.GetVersion())

	srv := server.New(cfg)
	if err := srv.Start(); err != nil {
		nuts.L.Errorf("[Main] Server error: %v", err)
		os.Exit(1)
	}
}

// ClearConsole clears the console screen
func ClearConsole() {
	tm.Clear()
	tm.MoveCursor(1, 1)
	tm.Flush()
}

func DrawLogo() {
	fmt.Println()
	lines := []string{
		"    ____  _            ___          ",
		"   / __ \\(_)___  ___  / (_)___  ___ ",
		"  / /_/ / / __ \\/ _ \\/ / / __ \\/ _ \\",
		" / ____/ / /_/ /  __/ / / / / /  __/",
		"/_/   /_/ .___/\\___/_/_/_/ /_/\\___/ ",
		"       /_/ ...........................  " + nuts.GetVersion(),
	}

	for _, line := range lines {
		fmt.Println(line)
	}
}
