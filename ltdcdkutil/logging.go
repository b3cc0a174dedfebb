package ltdcdkutil

import (
	"fmt"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"
	"github.com/penysho/load-test-demo/ltdplan"
)

// LogInfo adds an info annotation to scope. It is printed by `cdk synth`.
func LogInfo(scope constructs.Construct, constructID, format string, args ...any) {
	awscdk.Annotations_Of(scope).AddInfo(jsii.String(prefixed(scope, constructID, format, args...)))
}

// LogWarning adds an acknowledgeable warning annotation to scope.
func LogWarning(scope constructs.Construct, warningID, constructID, format string, args ...any) {
	awscdk.Annotations_Of(scope).AddWarningV2(jsii.String(warningID),
		jsii.String(prefixed(scope, constructID, format, args...)))
}

// LogError adds an error annotation to scope, failing synthesis.
func LogError(scope constructs.Construct, constructID, format string, args ...any) {
	awscdk.Annotations_Of(scope).AddError(jsii.String(prefixed(scope, constructID, format, args...)))
}

// prefixed adds "[constructID] " unless the path of scope already ends in it.
func prefixed(scope constructs.Construct, constructID, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if constructID == "" {
		return msg
	}
	if path := *scope.Node().Path(); strings.HasSuffix(path, "/"+constructID) || path == constructID {
		return msg
	}
	return fmt.Sprintf("[%s] %s", constructID, msg)
}

func logNote(stack awscdk.Stack, note ltdplan.Note) {
	switch note.Level {
	case ltdplan.NoteWarning:
		LogWarning(stack, note.ID, *stack.StackName(), "%s", note.Message)
	default:
		LogInfo(stack, *stack.StackName(), "%s", note.Message)
	}
}
