package errs

import "fmt"

type Code string

const (
	AllWithNamedKeys    Code = "ALL_WITH_NAMED_KEYS"
	ProvideKeysOrAll    Code = "PROVIDE_KEYS_OR_ALL"
	ConfigAlreadyExists Code = "CONFIG_ALREADY_EXISTS"
	RefreshWithoutFetch Code = "REFRESH_WITHOUT_FETCH"
)

var messages = map[Code]string{
	AllWithNamedKeys: `Invalid flag combination: cannot use --all with named keys

Usage:
  - %[1]s every cached entry:
      metafetch %[2]s --all
  - %[1]s only specific entries:
      metafetch %[2]s details-US details-DE

Reason:
  --all targets everything, named args target a subset.`,

	ProvideKeysOrAll: `Missing targets: provide cache keys or use --all

Examples:
  metafetch %[2]s details-US     # %[1]s a specific entry
  metafetch %[2]s --all          # %[1]s every cached entry

Hint:
  metafetch status lists the cached keys.`,

	ConfigAlreadyExists: `A configuration file already exists at %[1]s

Usage:
  - Keep it and edit it by hand
  - Overwrite it with the defaults:
      metafetch init --force`,

	RefreshWithoutFetch: `Invalid flag combination: --refresh cannot be combined with --offline

Reason:
  --refresh forces a download, --offline forbids one.`,
}

func Msg(code Code, a ...any) string {
	msg := messages[code]
	if msg == "" {
		msg = string(code)
	}
	return fmt.Sprintf(msg, a...)
}
