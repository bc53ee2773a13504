package rooms

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// decodeRoom decodes one upstream JSON object. Weak typing lets numeric
// floors and string capacities through.
func decodeRoom(raw any) (upstreamRoom, error) {
	var u upstreamRoom
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           &u,
	})
	if err != nil {
		return u, err
	}
	if err := dec.Decode(raw); err != nil {
		return u, fmt.Errorf("failed to decode room: %w", err)
	}
	return u, nil
}
