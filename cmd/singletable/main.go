// singletable is a CLI for a single-table DynamoDB design with models and
// submodels, backed by DynamoDB or by the in-process emulator.
//
// # Commands
//
//	singletable create                    Create the table
//	singletable describe                  Describe the table
//	singletable put-model foo --value 3   Put a model
//	singletable put-submodel foo bar      Put a submodel under an existing model
//	singletable get-model foo             Get a model
//	singletable list-submodels foo        List the submodels of a model
//	singletable query model#foo           Query a partition
//	singletable scan --index model        Scan the table or the model index
//	singletable serve --addr :8080        Serve the table over HTTP
//	singletable whoami                    Show the caller identity
//
// # Configuration
//
// Flags take precedence over environment variables (AWS_ENDPOINT_URL,
// AWS_REGION, SINGLETABLE_*), which take precedence over singletable.yaml,
// found by walking up from the working directory. .env and .env.local are
// loaded first.
//
// Against DynamoDB Local:
//
//	export AWS_ENDPOINT_URL=http://localhost:8000
//	singletable create
//
// Without any AWS, the emulated table lives as long as the process:
//
//	singletable --backend badger serve
//	curl -X POST localhost:8080/api/table
package main

import (
	"fmt"
	"os"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", exitError(err))
		os.Exit(1)
	}
}
