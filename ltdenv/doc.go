// Package ltdenv resolves the deployment environment and the settings that
// parameterise every stack of the load-test-demo infrastructure.
//
// The package is free of any CDK dependency. A [Config] is built once at
// process entry (see [NewConfig]) and passed explicitly to the stack builders.
package ltdenv
