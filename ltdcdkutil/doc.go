// Package ltdcdkutil renders a compiled ltdplan graph into AWS CDK stacks.
//
// This package includes helpers for:
//   - Creating stacks with the environment, tags and naming of a deployment
//   - Translating plan values into CloudFormation intrinsic tokens
//   - Wiring stack dependencies, deletion policies, transforms and exports
//   - Surfacing plan notes as construct annotations during synthesis
package ltdcdkutil
