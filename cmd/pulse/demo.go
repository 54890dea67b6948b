package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pulseui/pulse/internal/config"
	"github.com/pulseui/pulse/pkg/pulse"
)

func demoCmd(configDir *string) *cobra.Command {
	return &cobra.Command{
		Use:   "demo",
		Short: "Run a small reactive pipeline and print what happens",
		Long: `Run a demonstration of signals, memos, effects, and batching.

The demo builds a tiny shopping cart pipeline and walks through writes,
derived values, batched updates, and scope disposal, logging each step.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configDir)
			if err != nil {
				return err
			}

			logger, closeLog, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer closeLog()

			printBanner()
			fmt.Println()

			dispose := pulse.CreateRoot(func(dispose func()) func() {
				quantity := pulse.NewSignal(1)
				unitPrice := pulse.NewSignal(9.99)

				total := pulse.NewMemo(func() float64 {
					return float64(quantity.Get()) * unitPrice.Get()
				})

				pulse.CreateEffect(func() pulse.Cleanup {
					logger.Info("cart updated",
						"quantity", quantity.Get(),
						"total", fmt.Sprintf("%.2f", total.Get()))
					return nil
				})

				logger.Info("single write")
				quantity.Set(3)

				logger.Info("batched write")
				pulse.Batch(func() {
					quantity.Set(5)
					unitPrice.Set(7.49)
				})

				logger.Info("equal write (no effect run)")
				quantity.Set(5)

				return dispose
			})

			dispose()
			logger.Info("scope disposed")
			return nil
		},
	}
}
