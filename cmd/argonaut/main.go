// Command argonaut renders Argo Workflow manifests from declaration files.
package main

import "github.com/cameronsjo/argonaut/internal/cmd"

func main() {
	cmd.Execute()
}
