// internal/common/camunda/responder.go
package camunda

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

// Action is how a job is answered.
type Action int

const (
	ActionComplete Action = iota
	ActionFail
	ActionThrow
)

func (a Action) String() string {
	switch a {
	case ActionComplete:
		return "complete"
	case ActionFail:
		return "fail"
	case ActionThrow:
		return "throw"
	}
	return "unknown"
}

// Settlement is the answer to one activated job.
//
// ActionComplete sends Variables. ActionFail hands the job back with Retries
// remaining after Backoff. ActionThrow raises the BPMN error ErrorCode so a
// boundary event can route the instance.
type Settlement struct {
	Action         Action
	Variables      map[string]interface{}
	Retries        int32
	Backoff        time.Duration
	ErrorCode      string
	ErrorMessage   string
	ErrorVariables map[string]interface{}
}

// Respond sends the settlement for job to the broker.
func Respond(ctx context.Context, client worker.JobClient, job entities.Job, s Settlement) error {
	switch s.Action {
	case ActionComplete:
		variables := s.Variables
		if variables == nil {
			variables = map[string]interface{}{}
		}
		cmd, err := client.NewCompleteJobCommand().
			JobKey(job.Key).
			VariablesFromObject(variables)
		if err != nil {
			return fmt.Errorf("create complete job command: %w", err)
		}
		if _, err := cmd.Send(ctx); err != nil {
			return fmt.Errorf("send complete job command: %w", err)
		}

	case ActionFail:
		cmd := client.NewFailJobCommand().
			JobKey(job.Key).
			Retries(s.Retries).
			ErrorMessage(s.ErrorMessage).
			RetryBackoff(s.Backoff)
		if _, err := cmd.Send(ctx); err != nil {
			return fmt.Errorf("send fail job command: %w", err)
		}

	case ActionThrow:
		cmd := client.NewThrowErrorCommand().
			JobKey(job.Key).
			ErrorCode(s.ErrorCode).
			ErrorMessage(s.ErrorMessage)
		if len(s.ErrorVariables) > 0 {
			payload, err := json.Marshal(s.ErrorVariables)
			if err != nil {
				return fmt.Errorf("encode error variables: %w", err)
			}
			if cmd, err = cmd.VariablesFromString(string(payload)); err != nil {
				return fmt.Errorf("set error variables: %w", err)
			}
		}
		if _, err := cmd.Send(ctx); err != nil {
			return fmt.Errorf("send throw error command: %w", err)
		}

	default:
		return fmt.Errorf("unknown settlement action %d", s.Action)
	}
	return nil
}
