package feedbackapi

import (
	"encoding/json"
	"io"
)

func jsonDecode(r io.Reader, dst any) error {
	return json.NewDecoder(r).Decode(dst)
}
