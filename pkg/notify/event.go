// Package notify receives the backend's push notifications over Socket.IO
// and fans them out to the workflows waiting on them.
package notify

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

// Event tags pushed by the backend. Connect and Disconnect are synthesized
// by the listener.
const (
	TagBuyPending        = "BUY_PENDING"
	TagSimulateCompleted = "SIMULATE_COMPLETED"
	TagDisperseCompleted = "DISPERSE_COMPLETED"
	TagBuyCompleted      = "BUY_COMPLETED"
	TagBuySmallToken     = "BUY_SMALL_TOKEN"
	TagSellCompleted     = "SELL_COMPLETED"
	TagTransferCompleted = "TRANSFER_COMPLETED"
	TagCollectAllSOL     = "COLLECT_ALL_SOL"
	TagCollectAllFee     = "COLLECT_ALL_FEE"
	TagCreateToken       = "CREATE_TOKEN"
	TagCreateMarket      = "CREATE_OPENBOOKMARKET"
	TagRevokeMint        = "REVOKE_MINT"
	TagSetMint           = "SET_MINT"
	TagFreezeMint        = "FREEZE_MINT"
	TagRevokeFreezeMint  = "REVOKE_FREEZE_MINT"
	TagRemoveLP          = "REMOVE_LP"
	TagBurnLP            = "BURN_LP"
	TagBurnToken         = "BURN_TOKEN"
	TagCloseToken        = "CLOSE_TOKEN"
	TagLog               = "LOG"
	TagConnect           = "connect"
	TagDisconnect        = "disconnect"
)

const (
	emitNewUser    = "NEW_USER"
	successMessage = "OK"
)

// Event is one decoded notification.
type Event struct {
	Tag     string
	Success bool
	Data    json.RawMessage
	Error   string
	Project *types.Project
	// Text holds the line of a LOG event.
	Text string
	At   time.Time
}

// Err returns nil for a successful event and an *types.EventError otherwise.
func (e Event) Err() error {
	if e.Success {
		return nil
	}
	return &types.EventError{Tag: e.Tag, Message: e.Error}
}

// Simulation decodes the SimulationResult carried by SIMULATE_COMPLETED.
func (e Event) Simulation() (*types.SimulationResult, error) {
	if len(e.Data) == 0 || string(e.Data) == "null" {
		return nil, fmt.Errorf("%s carries no simulation data", e.Tag)
	}
	var sim types.SimulationResult
	if err := json.Unmarshal(e.Data, &sim); err != nil {
		return nil, fmt.Errorf("decode simulation: %w", err)
	}
	return &sim, nil
}

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   json.RawMessage `json:"error"`
	Project *types.Project  `json:"project"`
}

// DecodeEvent turns the first argument of a Socket.IO event into an Event.
// The backend sends the envelope as a JSON encoded string, occasionally as
// a bare object.
func DecodeEvent(tag string, arg json.RawMessage) (Event, error) {
	ev := Event{Tag: tag, At: time.Now()}
	body := bytes.TrimSpace(arg)
	if len(body) > 0 && body[0] == '"' {
		var s string
		if err := json.Unmarshal(body, &s); err != nil {
			return ev, fmt.Errorf("decode %s payload: %w", tag, err)
		}
		body = []byte(s)
	}

	switch tag {
	case TagBuyPending:
		ev.Success = true
		return ev, nil
	case TagLog:
		ev.Success = true
		ev.Text = string(body)
		return ev, nil
	}

	if len(body) == 0 {
		return ev, fmt.Errorf("%s: empty payload", tag)
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return ev, fmt.Errorf("decode %s envelope: %w", tag, err)
	}
	ev.Success = env.Message == successMessage
	ev.Data = env.Data
	ev.Project = env.Project
	ev.Error = errorText(env.Error)
	if !ev.Success && ev.Error == "" {
		ev.Error = env.Message
	}
	return ev, nil
}

func errorText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Message != "" {
		return obj.Message
	}
	return string(raw)
}
