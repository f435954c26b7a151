// Command bxd-request builds and checks signed bxd.fi ApplicationRequests.
package main

import (
	"os"

	"github.com/sirosfoundation/go-bxd/cmd/bxd-request/requestcmd"
)

func main() {
	if err := requestcmd.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
