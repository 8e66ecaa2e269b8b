package planner

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/scufflecloud/ci-prep/protocol"
)

// WritePlan writes jobs as a single "<key>=<json>" line, the format of a
// step output.
func WritePlan(w io.Writer, key string, jobs []protocol.Job) error {
	if jobs == nil {
		jobs = []protocol.Job{}
	}
	data, err := json.Marshal(jobs)
	if err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	if _, err := fmt.Fprintf(w, "%s=%s\n", key, data); err != nil {
		return fmt.Errorf("write plan: %w", err)
	}
	return nil
}
