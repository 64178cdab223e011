// Command apicall sends a single API call and prints the response body.
//
//     apicall --config client.yaml -X POST -H "X-Tenant: acme" -d '{"name":"ann"}' users
//
// Settings come from the config file, .env files and APICLIENT_* environment
// variables; see the config package.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
