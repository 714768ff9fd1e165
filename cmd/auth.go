// Package cmd provides shared helpers for CLI commands.
package cmd

import (
	"fmt"
	"os"

	service "github.com/lumenlabs-io/stake-withdrawer/withdrawerservice"
)

// GetEnvBasicAuth reads the daemon route basic-auth credentials from the
// environment. Both variables unset disables route authentication, setting
// only one of them is an error.
func GetEnvBasicAuth() (expUsername, expPwd string, err error) {
	expUsername = os.Getenv(service.EnvRouteAuthUser)
	expPwd = os.Getenv(service.EnvRouteAuthPwd)

	if (expUsername == "") != (expPwd == "") {
		return "", "", fmt.Errorf(
			"both %s and %s must be set to authenticate the daemon routes",
			service.EnvRouteAuthUser, service.EnvRouteAuthPwd,
		)
	}

	return expUsername, expPwd, nil
}
