/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"thumbstudio/internal/config"
	applog "thumbstudio/internal/log"
	"thumbstudio/internal/telemetry"
	"thumbstudio/internal/ui"
	"thumbstudio/internal/version"
)

func usage() {
	fmt.Println("Thumbstudio, thumbnail layout editor")
	fmt.Printf("Version: %s\n", version.String())
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  thumbstudio version|-v|--version                    Show version")
	fmt.Println("  thumbstudio serve [--addr :8080]                     Run the HTTP editor API")
	fmt.Println("  thumbstudio render <layout> [-o out.png] [--preset]  Render a PNG preview")
	fmt.Println("  thumbstudio svg <layout> [-o out.svg] [--frames]     Export the layout as SVG")
	fmt.Println("  thumbstudio prompt <layout> [--style] [--tier] [--copy]  Generate an image prompt")
	fmt.Println("  thumbstudio styles [--category]                      List the style catalog")
	fmt.Println("  thumbstudio guide <layout> [-o guide.pdf]            Write the printable style guide")
	fmt.Println("  thumbstudio bundle <layout> [-o pack.zip]            Bundle catalog, layout and prompt")
	fmt.Println("  thumbstudio install <pack.zip> [--into <dir>]        Install a style pack")
	fmt.Println("  thumbstudio token <subject> [--ttl 24h]              Sign an API token (needs TS_AUTH_SECRET)")
	fmt.Println("  thumbstudio ui [<layoutDir>]                         Launch the desktop editor (build with -tags fyne)")
	fmt.Println()
	fmt.Println("<layout> is a layout.json file or a layout directory.")
}

// app carries what every command needs.
type app struct {
	cfg    config.AppConfig
	apiKey string
	tel    *telemetry.Client
	log    *slog.Logger
}

func main() {
	cfg, apiKey, err := config.Load()
	applog.Init(applog.Options{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		AddSource: cfg.Logging.Source,
		File:      cfg.Logging.File,
	})
	defer func() { _ = applog.Close() }()
	l := applog.WithComponent("cli")
	if err != nil {
		l.Warn("config load failed, using defaults", slog.Any("err", err))
	}
	tel := telemetry.Init(telemetry.FromEnv(cfg.General.TelemetryOptIn))
	defer telemetry.Shutdown()

	args := os.Args[1:]
	l.Debug("start", slog.Int("args", len(args)))
	if len(args) == 0 {
		usage()
		return
	}
	a := &app{cfg: cfg, apiKey: apiKey, tel: tel, log: l}
	if err := a.run(args[0], args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		l.Error("command failed", slog.String("cmd", args[0]), slog.Any("err", err))
		fmt.Println("Error:", err)
		telemetry.Shutdown()
		_ = applog.Close()
		os.Exit(1)
	}
}

func (a *app) run(cmd string, args []string) error {
	telemetry.Track("command", map[string]any{"name": cmd})
	switch cmd {
	case "version", "--version", "-v":
		fmt.Println("Thumbstudio")
		fmt.Println(version.String())
		return nil
	case "serve":
		return a.serve(args)
	case "render":
		return a.render(args)
	case "svg":
		return a.svg(args)
	case "prompt":
		return a.prompt(args)
	case "styles":
		return a.styles(args)
	case "guide":
		return a.guide(args)
	case "bundle":
		return a.bundle(args)
	case "install":
		return a.install(args)
	case "token":
		return a.token(args)
	case "ui":
		var dir string
		if len(args) > 0 {
			dir = args[0]
		}
		return ui.Run(dir)
	case "help", "-h", "--help":
		usage()
		return nil
	}
	usage()
	return fmt.Errorf("unknown command %q", cmd)
}
