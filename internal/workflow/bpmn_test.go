// internal/workflow/bpmn_test.go
package workflow

import (
	"encoding/xml"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parsed mirrors the rendered document through its namespaces.
type parsed struct {
	Errors []struct {
		ID        string `xml:"id,attr"`
		ErrorCode string `xml:"errorCode,attr"`
	} `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL error"`
	Process struct {
		ID    string `xml:"id,attr"`
		Start struct {
			ID string `xml:"id,attr"`
		} `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL startEvent"`
		Tasks []struct {
			ID         string `xml:"id,attr"`
			Definition struct {
				Type    string `xml:"type,attr"`
				Retries string `xml:"retries,attr"`
			} `xml:"extensionElements>taskDefinition"`
		} `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL serviceTask"`
		Boundaries []struct {
			ID         string `xml:"id,attr"`
			AttachedTo string `xml:"attachedToRef,attr"`
			Outputs    []struct {
				Source string `xml:"source,attr"`
				Target string `xml:"target,attr"`
			} `xml:"extensionElements>ioMapping>output"`
			ErrorDefinition struct {
				ErrorRef string `xml:"errorRef,attr"`
			} `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL errorEventDefinition"`
		} `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL boundaryEvent"`
		Gateways []struct {
			ID      string `xml:"id,attr"`
			Default string `xml:"default,attr"`
		} `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL exclusiveGateway"`
		Ends []struct {
			ID string `xml:"id,attr"`
		} `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL endEvent"`
		Flows []struct {
			ID        string `xml:"id,attr"`
			Source    string `xml:"sourceRef,attr"`
			Target    string `xml:"targetRef,attr"`
			Condition string `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL conditionExpression"`
		} `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL sequenceFlow"`
	} `xml:"http://www.omg.org/spec/BPMN/20100524/MODEL process"`
}

func render(t *testing.T, def Definition) parsed {
	t.Helper()
	raw, err := Render(def)
	require.NoError(t, err)

	var doc parsed
	require.NoError(t, xml.Unmarshal(raw, &doc))
	return doc
}

// successors maps every node to the targets of its outgoing flows,
// including the boundary events attached to tasks.
func successors(doc parsed) map[string][]string {
	next := make(map[string][]string)
	for _, f := range doc.Process.Flows {
		next[f.Source] = append(next[f.Source], f.Target)
	}
	for _, b := range doc.Process.Boundaries {
		next[b.AttachedTo] = append(next[b.AttachedTo], b.ID)
	}
	return next
}

func reachable(next map[string][]string, from string) map[string]bool {
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range next[cur] {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}
	return seen
}

func TestRenderLoanEvaluation(t *testing.T) {
	def := LoanEvaluation()
	doc := render(t, def)

	assert.Equal(t, LoanEvaluationProcessID, doc.Process.ID)
	require.Len(t, doc.Errors, 2)

	require.Len(t, doc.Process.Tasks, len(def.Steps))
	for i, step := range def.Steps {
		assert.Equal(t, step.TaskType, doc.Process.Tasks[i].Definition.Type)
	}
	assert.Equal(t, "10", doc.Process.Tasks[4].Definition.Retries, "persist retries follow its policy")

	ends := make([]string, 0, len(doc.Process.Ends))
	for _, e := range doc.Process.Ends {
		ends = append(ends, e.ID)
	}
	assert.ElementsMatch(t, []string{"End_Invalid", "End_Failed", "End_DuplicateRejected", "End_Completed"}, ends)

	// every element is reachable from the start event
	seen := reachable(successors(doc), doc.Process.Start.ID)
	for _, task := range doc.Process.Tasks {
		assert.True(t, seen[task.ID], task.ID)
	}
	for _, e := range ends {
		assert.True(t, seen[e], e)
	}

	// every gateway with a conditional branch has a default
	conditional := make(map[string]bool)
	for _, f := range doc.Process.Flows {
		if f.Condition != "" {
			conditional[f.Source] = true
		}
	}
	for _, g := range doc.Process.Gateways {
		if conditional[g.ID] {
			assert.NotEmpty(t, g.Default, g.ID)
		}
	}
}

func TestRenderFailureRouting(t *testing.T) {
	doc := render(t, LoanEvaluation())

	byTask := make(map[string][]string)
	for _, b := range doc.Process.Boundaries {
		require.Len(t, b.Outputs, 1)
		assert.Equal(t, "=failure", b.Outputs[0].Source)
		byTask[b.AttachedTo] = append(byTask[b.AttachedTo], b.ErrorDefinition.ErrorRef)

		if b.AttachedTo == "Task_notify_loan_agent" {
			assert.Empty(t, b.ErrorDefinition.ErrorRef, "optional step catches every error")
			assert.Equal(t, VarNotificationError, b.Outputs[0].Target)
		} else {
			assert.Equal(t, VarFailure, b.Outputs[0].Target)
		}
	}

	assert.ElementsMatch(t, []string{"Error_VALIDATION_FAILED", "Error_ACTIVITY_FAILED"}, byTask["Task_persist_submission"])
	assert.Len(t, byTask["Task_notify_loan_agent"], 1)

	next := successors(doc)
	for _, b := range doc.Process.Boundaries {
		switch b.ErrorDefinition.ErrorRef {
		case "Error_VALIDATION_FAILED":
			assert.Equal(t, []string{"End_Invalid"}, next[b.ID])
		case "Error_ACTIVITY_FAILED":
			assert.Equal(t, []string{"End_Failed"}, next[b.ID])
		default:
			assert.Equal(t, []string{"Join_notify_loan_agent"}, next[b.ID])
		}
	}
}

func TestRenderConditions(t *testing.T) {
	doc := render(t, LoanEvaluation())

	conditions := make(map[string]string)
	for _, f := range doc.Process.Flows {
		if f.Condition != "" {
			conditions[f.Target] = f.Condition
		}
	}
	assert.Equal(t, "=duplicate.isDuplicate = true", conditions["End_DuplicateRejected"])
	assert.Equal(t, `=verdict.decision = "conditionally_approved"`, conditions["Task_notify_loan_agent"])
}

func TestRenderContactPreference(t *testing.T) {
	doc := render(t, ContactPreference())
	require.Len(t, doc.Process.Tasks, 1)
	assert.Equal(t, TaskUpdateContactPreference, doc.Process.Tasks[0].Definition.Type)
	assert.Empty(t, doc.Process.Gateways)

	seen := reachable(successors(doc), "Start")
	assert.True(t, seen["End_Completed"])
	assert.True(t, seen["End_Failed"])
}

func TestRenderEmptyDefinition(t *testing.T) {
	_, err := Render(Definition{ProcessID: "empty"})
	assert.Error(t, err)
}
