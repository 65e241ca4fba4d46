package slurm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teranos/qsup/errors"
)

// Slurm's JSON output changed shape across releases: scalar states became
// single-element arrays and integers became {"set","infinite","number"}
// objects. Both encodings are accepted; anything else is rejected.

// stateList decodes either "STATE" or ["STATE", "FLAG", ...].
type stateList []string

func (s *stateList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = nil
		return nil
	}
	if data[0] == '"' {
		var one string
		if err := json.Unmarshal(data, &one); err != nil {
			return err
		}
		*s = stateList{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return errors.Wrap(err, "state must be a string or an array of strings")
	}
	*s = many
	return nil
}

// primary returns the semantic state: the first element.
func (s stateList) primary() (string, bool) {
	if len(s) == 0 || strings.TrimSpace(s[0]) == "" {
		return "", false
	}
	return s[0], true
}

// slurmNumber decodes either a bare integer or {"set":..,"infinite":..,"number":..}.
// Unset and infinite values decode to zero.
type slurmNumber int64

func (n *slurmNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}
	if data[0] == '{' {
		var wrapped struct {
			Set      *bool  `json:"set"`
			Infinite bool   `json:"infinite"`
			Number   *int64 `json:"number"`
		}
		if err := json.Unmarshal(data, &wrapped); err != nil {
			return err
		}
		if wrapped.Number == nil {
			return errors.New("number object has no \"number\" field")
		}
		if (wrapped.Set != nil && !*wrapped.Set) || wrapped.Infinite {
			*n = 0
			return nil
		}
		*n = slurmNumber(*wrapped.Number)
		return nil
	}
	var plain int64
	if err := json.Unmarshal(data, &plain); err != nil {
		return errors.Wrap(err, "number must be an integer or a number object")
	}
	*n = slurmNumber(plain)
	return nil
}

type responseMessage struct {
	Error       string `json:"error"`
	Description string `json:"description"`
	ErrorNumber int    `json:"error_number"`
}

func (m responseMessage) String() string {
	switch {
	case m.Description != "" && m.Error != "":
		return m.Error + ": " + m.Description
	case m.Description != "":
		return m.Description
	default:
		return m.Error
	}
}

type releaseInfo struct {
	Release string `json:"release"`
}

type queueJob struct {
	Name     *string     `json:"name"`
	JobID    slurmNumber `json:"job_id"`
	JobState stateList   `json:"job_state"`
}

type queueResponse struct {
	Jobs   *[]queueJob                `json:"jobs"`
	Meta   map[string]json.RawMessage `json:"meta"`
	Errors []responseMessage          `json:"errors"`
}

type historyJob struct {
	Name  *string     `json:"name"`
	JobID slurmNumber `json:"job_id"`
	Time  struct {
		End slurmNumber `json:"end"`
	} `json:"time"`
	State struct {
		Current stateList `json:"current"`
	} `json:"state"`
}

type historyResponse struct {
	Jobs   *[]historyJob              `json:"jobs"`
	Meta   map[string]json.RawMessage `json:"meta"`
	Errors []responseMessage          `json:"errors"`
}

// decodeQueue turns squeue --json output into live-state records.
// The returned string is the scheduler release, when reported.
func decodeQueue(data []byte) ([]JobRecord, string, error) {
	var resp queueResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, "", errors.Wrap(err, "failed to decode queue response")
	}
	if err := responseErrors(resp.Errors); err != nil {
		return nil, "", err
	}
	if resp.Jobs == nil {
		return nil, "", errors.New("queue response has no \"jobs\" array")
	}

	records := make([]JobRecord, 0, len(*resp.Jobs))
	for i, j := range *resp.Jobs {
		if j.Name == nil {
			return nil, "", errors.Newf("queue job %d has no name", i)
		}
		raw, ok := j.JobState.primary()
		if !ok {
			return nil, "", errors.Newf("queue job %d (%s) has no job_state", i, *j.Name)
		}
		records = append(records, JobRecord{
			Name:      *j.Name,
			JobID:     int64(j.JobID),
			LiveState: ParseLiveState(raw),
			RawState:  raw,
		})
	}
	return records, release(resp.Meta), nil
}

// decodeHistory turns sacct --json output into terminal-state records.
func decodeHistory(data []byte) ([]JobRecord, string, error) {
	var resp historyResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, "", errors.Wrap(err, "failed to decode accounting response")
	}
	if err := responseErrors(resp.Errors); err != nil {
		return nil, "", err
	}
	if resp.Jobs == nil {
		return nil, "", errors.New("accounting response has no \"jobs\" array")
	}

	records := make([]JobRecord, 0, len(*resp.Jobs))
	for i, j := range *resp.Jobs {
		if j.Name == nil {
			return nil, "", errors.Newf("accounting job %d has no name", i)
		}
		raw, ok := j.State.Current.primary()
		if !ok {
			return nil, "", errors.Newf("accounting job %d (%s) has no state.current", i, *j.Name)
		}
		records = append(records, JobRecord{
			Name:          *j.Name,
			JobID:         int64(j.JobID),
			TerminalState: ParseTerminalState(raw),
			RawState:      raw,
			EndTime:       int64(j.Time.End),
		})
	}
	return records, release(resp.Meta), nil
}

func responseErrors(msgs []responseMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(msgs))
	for _, m := range msgs {
		parts = append(parts, m.String())
	}
	return errors.Newf("scheduler reported errors: %s", strings.Join(parts, "; "))
}

// release digs the Slurm release out of the response meta block. The key is
// "Slurm" on 21.08 and "slurm" from 22.05 on.
func release(meta map[string]json.RawMessage) string {
	for _, key := range []string{"slurm", "Slurm"} {
		raw, ok := meta[key]
		if !ok {
			continue
		}
		var info releaseInfo
		if err := json.Unmarshal(raw, &info); err == nil && info.Release != "" {
			return info.Release
		}
	}
	return ""
}

// snippet shortens raw output for error details.
func snippet(data []byte) string {
	const maxLen = 200
	s := strings.TrimSpace(string(data))
	if len(s) > maxLen {
		return fmt.Sprintf("%s... (%d bytes)", s[:maxLen], len(s))
	}
	return s
}
