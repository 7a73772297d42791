package analog

import (
	"context"
	"fmt"

	"github.com/gopcua/opcua"
	"github.com/gopcua/opcua/ua"

	"github.com/ghsecuritylab/488-final-project-code/internal/ports"
)

// OPCUASource reads analog values from an OPC UA server, mapping active port
// index to a configured node id. Reads are synchronous one-node requests to
// match the loop's single-threaded polling model.
type OPCUASource struct {
	client *opcua.Client
	nodes  []*ua.ReadValueID
}

// NewOPCUASource connects to endpoint and prepares one read request per node
// id, in port order.
func NewOPCUASource(ctx context.Context, endpoint string, nodeIDs []string) (*OPCUASource, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("opcua source: endpoint is required")
	}
	if len(nodeIDs) == 0 {
		return nil, fmt.Errorf("opcua source: at least one node id is required")
	}

	nodes := make([]*ua.ReadValueID, len(nodeIDs))
	for i, raw := range nodeIDs {
		id, err := ua.ParseNodeID(raw)
		if err != nil {
			return nil, fmt.Errorf("opcua source: parse node id %q: %w", raw, err)
		}
		nodes[i] = &ua.ReadValueID{NodeID: id, AttributeID: ua.AttributeIDValue}
	}

	client, err := opcua.NewClient(endpoint, opcua.SecurityMode(ua.MessageSecurityModeNone))
	if err != nil {
		return nil, fmt.Errorf("opcua source: new client: %w", err)
	}
	if err := client.Connect(ctx); err != nil {
		return nil, fmt.Errorf("opcua source: connect: %w", err)
	}

	return &OPCUASource{client: client, nodes: nodes}, nil
}

func (s *OPCUASource) Read(channel int) (float64, error) {
	if channel < 0 || channel >= len(s.nodes) {
		return 0, fmt.Errorf("opcua source: no node mapped to channel %d", channel)
	}

	resp, err := s.client.Read(context.Background(), &ua.ReadRequest{
		NodesToRead:        []*ua.ReadValueID{s.nodes[channel]},
		TimestampsToReturn: ua.TimestampsToReturnNeither,
	})
	if err != nil {
		return 0, fmt.Errorf("opcua source: read channel %d: %w", channel, err)
	}
	if len(resp.Results) == 0 {
		return 0, fmt.Errorf("opcua source: empty result for channel %d", channel)
	}
	res := resp.Results[0]
	if res.Status != ua.StatusOK {
		return 0, fmt.Errorf("opcua source: channel %d status %s", channel, res.Status)
	}

	v, ok := variantToFloat(res.Value)
	if !ok {
		return 0, fmt.Errorf("opcua source: channel %d has non-numeric value %T", channel, res.Value.Value())
	}
	return v, nil
}

func (s *OPCUASource) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

func variantToFloat(v *ua.Variant) (float64, bool) {
	if v == nil {
		return 0, false
	}

	switch val := v.Value().(type) {
	case float32:
		return float64(val), true
	case float64:
		return val, true
	case int8:
		return float64(val), true
	case uint8:
		return float64(val), true
	case int16:
		return float64(val), true
	case uint16:
		return float64(val), true
	case int32:
		return float64(val), true
	case uint32:
		return float64(val), true
	case int64:
		return float64(val), true
	case uint64:
		return float64(val), true
	default:
		return 0, false
	}
}

var _ ports.AnalogSource = (*OPCUASource)(nil)
