// Command backtest runs pairs-trading simulations over trade tables from the command line.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
