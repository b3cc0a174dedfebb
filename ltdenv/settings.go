package ltdenv

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
)

// SecretRotation controls scheduled rotation of the database admin secret.
type SecretRotation struct {
	Enabled      bool
	IntervalDays int `validate:"gte=1,lte=365"`
}

// Settings is the per-environment record every stack is parameterised by.
type Settings struct {
	HostedZoneID              string         `validate:"required,startswith=Z"`
	CertificateArn            string         `validate:"required,startswith=arn:aws:acm:"`
	DefaultElbSecurityGroupID string         `validate:"required,startswith=sg-"`
	EcsEnvFileS3Arn           string         `validate:"required,startswith=arn:aws:s3:::"`
	Branch                    string         `validate:"required,excludesall=*?"`
	APIHostname               string         `validate:"required,fqdn"`
	SecretRotation            SecretRotation `validate:"required"`
}

const (
	hostedZoneID              = "Z1022019Y95GQ6B89EE1"
	certificateArn            = "arn:aws:acm:ap-northeast-1:551152530614:certificate/78e1479b-2bb2-4f89-8836-a8ff91227dfb"
	defaultElbSecurityGroupID = "sg-0781f96eb35b3aaad"
	apiHostname               = "load-test-api.pesh-igpjt.com"
	rotationIntervalDays      = 3
)

func ecsEnvFileS3Arn(code EnvCode) string {
	return fmt.Sprintf("arn:aws:s3:::shared-tst-cicd/ecs/%s-app-%s/.env", ProjectName, code)
}

var settingsTable = map[EnvCode]Settings{
	Dev: {
		HostedZoneID:              hostedZoneID,
		CertificateArn:            certificateArn,
		DefaultElbSecurityGroupID: defaultElbSecurityGroupID,
		EcsEnvFileS3Arn:           ecsEnvFileS3Arn(Dev),
		Branch:                    "develop",
		APIHostname:               apiHostname,
		SecretRotation:            SecretRotation{Enabled: false, IntervalDays: rotationIntervalDays},
	},
	Tst: {
		HostedZoneID:              hostedZoneID,
		CertificateArn:            certificateArn,
		DefaultElbSecurityGroupID: defaultElbSecurityGroupID,
		EcsEnvFileS3Arn:           ecsEnvFileS3Arn(Tst),
		Branch:                    "test",
		APIHostname:               apiHostname,
		SecretRotation:            SecretRotation{Enabled: false, IntervalDays: rotationIntervalDays},
	},
	Prd: {
		HostedZoneID:              hostedZoneID,
		CertificateArn:            certificateArn,
		DefaultElbSecurityGroupID: defaultElbSecurityGroupID,
		EcsEnvFileS3Arn:           ecsEnvFileS3Arn(Prd),
		Branch:                    "main",
		APIHostname:               apiHostname,
		SecretRotation:            SecretRotation{Enabled: false, IntervalDays: rotationIntervalDays},
	},
}

func init() {
	if err := checkSettingsTable(settingsTable); err != nil {
		panic(err)
	}
}

// checkSettingsTable requires exactly one fully populated row per EnvCode.
func checkSettingsTable(table map[EnvCode]Settings) error {
	validate := newValidator()

	var msgs []string
	for _, code := range EnvCodes() {
		row, ok := table[code]
		if !ok {
			msgs = append(msgs, fmt.Sprintf("%s: no settings", code))
			continue
		}
		if err := validate.Struct(row); err != nil {
			msgs = append(msgs, fmt.Sprintf("%s: %s", code, strings.Join(validationMessages(err), "; ")))
		}
	}
	for code := range table {
		if !code.Valid() {
			msgs = append(msgs, fmt.Sprintf("%s: unknown environment code", code))
		}
	}

	if len(msgs) > 0 {
		return errors.Newf("invalid environment settings table:\n  - %s", strings.Join(msgs, "\n  - "))
	}
	return nil
}

// SettingsFor returns the settings of the given environment. Unknown codes
// are resolved to [DefaultEnvCode] first.
func SettingsFor(code EnvCode) Settings {
	return settingsTable[Resolve(string(code))]
}

func newValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}

func validationMessages(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, formatValidationError(e))
	}
	return msgs
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Namespace())
	case "startswith":
		return fmt.Sprintf("%s must start with %q (got %q)", e.Namespace(), e.Param(), e.Value())
	case "fqdn":
		return fmt.Sprintf("%s must be a valid domain name (got %q)", e.Namespace(), e.Value())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s] (got %q)", e.Namespace(), e.Param(), e.Value())
	case "len":
		return fmt.Sprintf("%s must have exactly %s entries", e.Namespace(), e.Param())
	case "gte", "lte":
		return fmt.Sprintf("%s is out of range (%s %s, got %v)", e.Namespace(), e.Tag(), e.Param(), e.Value())
	default:
		return fmt.Sprintf("%s failed validation %q", e.Namespace(), e.Tag())
	}
}
