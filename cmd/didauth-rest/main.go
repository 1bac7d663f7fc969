/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package didauth-rest (DID Authentication REST Server).
//
//
// Terms Of Service:
//
//
//     Schemes: https
//     Version: 0.1.0
//     License: SPDX-License-Identifier: Apache-2.0
//
//     Consumes:
//     - application/json
//     - application/jose
//
//     Produces:
//     - application/json
//     - application/jose
//
// swagger:meta
package main

import (
	"github.com/spf13/cobra"

	"github.com/trustbloc/did-auth-jose-go/cmd/didauth-rest/startcmd"
	"github.com/trustbloc/did-auth-jose-go/pkg/common/log"
)

// This is an application which starts the DID authentication controller API on given port.
func main() {
	rootCmd := &cobra.Command{
		Use: "didauth-rest",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	logger := log.New("didauth/rest-server")

	startCmd, err := startcmd.Cmd(&startcmd.HTTPServer{})
	if err != nil {
		logger.Fatalf(err.Error())
	}

	rootCmd.AddCommand(startCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("Failed to run didauth-rest: %s", err)
	}
}
