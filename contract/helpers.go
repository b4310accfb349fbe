package contract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/pkg/errors"
)

// ---------- JSON Conversions ----------

func ToJSON[T any](v T, objectType string) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal "+objectType)
	}
	return string(b), nil
}

// ---------- Parsing Helpers ----------

// NextField pops the next '|' separated field off s.
func NextField(s *string) string {
	i := strings.IndexByte(*s, '|')
	if i < 0 {
		f := *s
		*s = ""
		return f
	}
	f := (*s)[:i]
	*s = (*s)[i+1:]
	return f
}

func parseAddress(s string) (common.Address, error) {
	s = strings.TrimSpace(s)
	if !common.IsHexAddress(s) {
		return common.Address{}, errors.Wrapf(ErrMalformedPayload, "invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

// parseChoice reads a decimal uint8. Range checking against the 0/1 domain
// is left to Reveal so the guard order stays intact.
func parseChoice(s string) (uint8, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 8)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedPayload, "invalid choice %q", s)
	}
	return uint8(v), nil
}

func parseU64(s string) (uint64, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedPayload, "failed to parse '%s' to uint64", s)
	}
	return v, nil
}

func UInt64ToString(val uint64) string {
	return strconv.FormatUint(val, 10)
}
