// Package ltdplan is an engine-independent model of the infrastructure: a
// graph of stacks, each holding CloudFormation resource descriptors whose
// property values may reference other resources.
//
// Stack builders write into a [Graph]; renderers (see ltdcdkutil) and the
// plan preview read from it. Nothing in this package talks to AWS or the CDK.
package ltdplan
