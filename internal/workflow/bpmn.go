// internal/workflow/bpmn.go
package workflow

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"loan-workers/internal/common/errors"
)

const (
	bpmnNamespace  = "http://www.omg.org/spec/BPMN/20100524/MODEL"
	zeebeNamespace = "http://camunda.org/schema/zeebe/1.0"
	xsiNamespace   = "http://www.w3.org/2001/XMLSchema-instance"
)

type bpmnDefinitions struct {
	XMLName         xml.Name       `xml:"bpmn:definitions"`
	BPMN            string         `xml:"xmlns:bpmn,attr"`
	Zeebe           string         `xml:"xmlns:zeebe,attr"`
	XSI             string         `xml:"xmlns:xsi,attr"`
	ID              string         `xml:"id,attr"`
	TargetNamespace string         `xml:"targetNamespace,attr"`
	Exporter        string         `xml:"exporter,attr"`
	Errors          []bpmnErrorDef `xml:"bpmn:error"`
	Process         bpmnProcess    `xml:"bpmn:process"`
}

type bpmnErrorDef struct {
	ID        string `xml:"id,attr"`
	Name      string `xml:"name,attr"`
	ErrorCode string `xml:"errorCode,attr"`
}

type bpmnProcess struct {
	ID             string              `xml:"id,attr"`
	Name           string              `xml:"name,attr"`
	IsExecutable   bool                `xml:"isExecutable,attr"`
	StartEvent     bpmnNode            `xml:"bpmn:startEvent"`
	ServiceTasks   []bpmnServiceTask   `xml:"bpmn:serviceTask"`
	BoundaryEvents []bpmnBoundaryEvent `xml:"bpmn:boundaryEvent"`
	Gateways       []*bpmnGateway      `xml:"bpmn:exclusiveGateway"`
	EndEvents      []bpmnNode          `xml:"bpmn:endEvent"`
	Flows          []bpmnSequenceFlow  `xml:"bpmn:sequenceFlow"`
}

type bpmnNode struct {
	ID   string `xml:"id,attr"`
	Name string `xml:"name,attr,omitempty"`
}

type bpmnServiceTask struct {
	ID        string        `xml:"id,attr"`
	Name      string        `xml:"name,attr"`
	Extension taskExtension `xml:"bpmn:extensionElements"`
}

type taskExtension struct {
	TaskDefinition zeebeTaskDefinition `xml:"zeebe:taskDefinition"`
}

type zeebeTaskDefinition struct {
	Type    string `xml:"type,attr"`
	Retries string `xml:"retries,attr"`
}

type bpmnBoundaryEvent struct {
	ID              string              `xml:"id,attr"`
	AttachedToRef   string              `xml:"attachedToRef,attr"`
	Extension       ioExtension         `xml:"bpmn:extensionElements"`
	ErrorDefinition errorEventReference `xml:"bpmn:errorEventDefinition"`
}

type ioExtension struct {
	Outputs []zeebeMapping `xml:"zeebe:ioMapping>zeebe:output"`
}

type zeebeMapping struct {
	Source string `xml:"source,attr"`
	Target string `xml:"target,attr"`
}

type errorEventReference struct {
	ID       string `xml:"id,attr"`
	ErrorRef string `xml:"errorRef,attr,omitempty"`
}

type bpmnGateway struct {
	ID      string `xml:"id,attr"`
	Name    string `xml:"name,attr,omitempty"`
	Default string `xml:"default,attr,omitempty"`
}

type bpmnSequenceFlow struct {
	ID        string         `xml:"id,attr"`
	SourceRef string         `xml:"sourceRef,attr"`
	TargetRef string         `xml:"targetRef,attr"`
	Condition *bpmnCondition `xml:"bpmn:conditionExpression"`
}

type bpmnCondition struct {
	Type       string `xml:"xsi:type,attr"`
	Expression string `xml:",chardata"`
}

// processBuilder lays steps out left to right.
type processBuilder struct {
	process   bpmnProcess
	ends      map[State]bool
	flowCount int
}

// Render produces the BPMN 2.0 document Zeebe deploys for def.
//
// Each step becomes a service task whose job type is the step's TaskType and
// whose retries equal its maximum attempts. Required steps carry boundary
// events for VALIDATION_FAILED (to the Invalid end) and ACTIVITY_FAILED (to
// the Failed end), both copying the thrown failure variable into the
// process. Optional steps catch every error, store it under their
// FailureVariable and rejoin the main path. When guards and ExitWhen checks
// become exclusive gateways.
func Render(def Definition) ([]byte, error) {
	if len(def.Steps) == 0 {
		return nil, fmt.Errorf("process %s has no steps", def.ProcessID)
	}

	b := &processBuilder{
		process: bpmnProcess{
			ID:           def.ProcessID,
			Name:         def.Name,
			IsExecutable: true,
			StartEvent:   bpmnNode{ID: "Start", Name: string(StateStarted)},
		},
		ends: make(map[State]bool),
	}

	prev := b.process.StartEvent.ID
	var pendingDefault *bpmnGateway
	for _, step := range def.Steps {
		id := elementID(step.TaskType)
		taskID := "Task_" + id
		needsJoin := step.When != nil || step.Optional
		joinID := "Join_" + id

		if step.When != nil {
			guard := b.gateway("Guard_"+id, step.Name+"?")
			b.connect(prev, guard.ID, "", &pendingDefault)
			b.flow(guard.ID, taskID, step.When.FEEL())
			guard.Default = b.flow(guard.ID, joinID, "")
		} else {
			b.connect(prev, taskID, "", &pendingDefault)
		}

		b.process.ServiceTasks = append(b.process.ServiceTasks, bpmnServiceTask{
			ID:   taskID,
			Name: step.Name,
			Extension: taskExtension{TaskDefinition: zeebeTaskDefinition{
				Type:    step.TaskType,
				Retries: strconv.Itoa(step.Policy.MaximumAttempts),
			}},
		})

		if step.Optional {
			b.boundary("Catch_"+id, taskID, "", step.FailureVariable, joinID)
		} else {
			b.boundary("Invalid_"+id, taskID, "Error_"+errors.BPMNCodeValidationFailed, VarFailure, b.end(StateInvalid))
			b.boundary("Failed_"+id, taskID, "Error_"+errors.BPMNCodeActivityFailed, VarFailure, b.end(StateFailed))
		}

		prev = taskID
		if needsJoin {
			b.gateway(joinID, "")
			b.flow(taskID, joinID, "")
			prev = joinID
		}

		if step.ExitWhen != nil {
			exit := b.gateway("Exit_"+id, step.Name+" exit?")
			b.flow(prev, exit.ID, "")
			b.flow(exit.ID, b.end(step.ExitWhen.State), step.ExitWhen.Condition.FEEL())
			prev = exit.ID
			pendingDefault = exit
		}
	}
	b.connect(prev, b.end(StateCompleted), "", &pendingDefault)

	doc := bpmnDefinitions{
		BPMN:            bpmnNamespace,
		Zeebe:           zeebeNamespace,
		XSI:             xsiNamespace,
		ID:              "Definitions_" + elementID(def.ProcessID),
		TargetNamespace: "http://bpmn.io/schema/bpmn",
		Exporter:        "loan-workers",
		Errors: []bpmnErrorDef{
			errorDef(errors.BPMNCodeValidationFailed),
			errorDef(errors.BPMNCodeActivityFailed),
		},
		Process: b.process,
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", def.ProcessID, err)
	}
	return append([]byte(xml.Header), append(out, '\n')...), nil
}

// FileName is the resource name a definition is deployed under.
func FileName(def Definition) string {
	return def.ProcessID + ".bpmn"
}

// connect adds a flow from source and, when source is the gateway waiting
// for its default branch, marks the flow as that default.
func (b *processBuilder) connect(source, target, condition string, pending **bpmnGateway) {
	id := b.flow(source, target, condition)
	if *pending != nil && (*pending).ID == source {
		(*pending).Default = id
		*pending = nil
	}
}

func (b *processBuilder) flow(source, target, condition string) string {
	b.flowCount++
	f := bpmnSequenceFlow{
		ID:        fmt.Sprintf("Flow_%d", b.flowCount),
		SourceRef: source,
		TargetRef: target,
	}
	if condition != "" {
		f.Condition = &bpmnCondition{Type: "bpmn:tFormalExpression", Expression: condition}
	}
	b.process.Flows = append(b.process.Flows, f)
	return f.ID
}

func (b *processBuilder) gateway(id, name string) *bpmnGateway {
	g := &bpmnGateway{ID: id, Name: name}
	b.process.Gateways = append(b.process.Gateways, g)
	return g
}

func (b *processBuilder) boundary(id, attachedTo, errorRef, target, next string) {
	b.process.BoundaryEvents = append(b.process.BoundaryEvents, bpmnBoundaryEvent{
		ID:            id,
		AttachedToRef: attachedTo,
		Extension: ioExtension{Outputs: []zeebeMapping{
			{Source: "=" + VarFailure, Target: target},
		}},
		ErrorDefinition: errorEventReference{ID: id + "_Definition", ErrorRef: errorRef},
	})
	b.flow(id, next, "")
}

// end returns the end event for state, creating it on first use.
func (b *processBuilder) end(state State) string {
	id := "End_" + string(state)
	if !b.ends[state] {
		b.ends[state] = true
		b.process.EndEvents = append(b.process.EndEvents, bpmnNode{ID: id, Name: string(state)})
	}
	return id
}

func errorDef(code string) bpmnErrorDef {
	return bpmnErrorDef{ID: "Error_" + code, Name: code, ErrorCode: code}
}

// elementID turns a job type into a valid XML id.
func elementID(s string) string {
	return strings.NewReplacer("-", "_", ".", "_").Replace(s)
}
