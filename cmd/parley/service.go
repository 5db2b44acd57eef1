package main

import (
	"context"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"

	"github.com/parley-dev/parley/pkg/app"
)

// program adapts the app lifecycle to the service manager: Start returns
// immediately with the engine running in the background, Stop cancels it
// and waits for the shutdown to finish.
type program struct {
	params app.RunParams

	cancel context.CancelFunc
	done   chan struct{}
	runErr error
}

var _ service.Interface = (*program)(nil)

func (p *program) Start(_ service.Service) error {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		p.runErr = app.RunContext(ctx, p.params)
	}()
	return nil
}

func (p *program) Stop(_ service.Service) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		<-p.done
	}
	return p.runErr
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:       "service [install|uninstall|start|stop|restart|run]",
		Short:     "Run or manage parley as a system service",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: append(service.ControlAction[:], "run"),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")

			svcConfig := &service.Config{
				Name:        "parley",
				DisplayName: "Parley Interview Server",
				Description: "Adaptive mock-interview orchestration server.",
				Arguments:   []string{"service", "run"},
			}
			if cfgPath != "" {
				svcConfig.Arguments = append(svcConfig.Arguments, "--config", cfgPath)
			}

			prg := &program{params: app.RunParams{
				ConfigPath: cfgPath,
				Version:    version,
				Commit:     commit,
				Date:       date,
			}}
			svc, err := service.New(prg, svcConfig)
			if err != nil {
				return err
			}

			if args[0] == "run" {
				return svc.Run()
			}
			return service.Control(svc, args[0])
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}
