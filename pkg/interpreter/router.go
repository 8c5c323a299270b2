package interpreter

import (
	"encoding/json"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/wilbe-developer/wilbe-marketing-branch-sub004/pkg/models"
)

type RouteKind string

const (
	SchemaRouteKind RouteKind = "schema"
	CustomRouteKind RouteKind = "custom"
	LegacyRouteKind RouteKind = "legacy"
	NoneRouteKind   RouteKind = "none"
)

// CustomRenderer renders a task that has a hard-coded component.
type CustomRenderer interface {
	Render(task models.SprintTask, ictx Context) View
}

type CustomRendererFunc func(task models.SprintTask, ictx Context) View

func (f CustomRendererFunc) Render(task models.SprintTask, ictx Context) View {
	return f(task, ictx)
}

// Route is the renderer chosen for a task.
type Route struct {
	Kind       RouteKind
	Definition models.TaskDefinition // set for SchemaRouteKind
	Custom     CustomRenderer        // set for CustomRouteKind
}

// Router dispatches a task to the schema interpreter, a registered custom
// renderer or the legacy renderer. The first matching rule wins:
//  1. the definition has a steps array
//  2. a custom renderer is registered for the task id
//  3. the definition has the legacy shape
//  4. nothing is rendered
type Router struct {
	mu     sync.RWMutex
	custom map[string]CustomRenderer
}

func NewRouter() *Router {
	return &Router{custom: make(map[string]CustomRenderer)}
}

// Register installs a custom renderer for taskID, replacing any previous one.
func (r *Router) Register(taskID string, renderer CustomRenderer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.custom[taskID] = renderer
}

func (r *Router) Route(task models.SprintTask) Route {
	raw := []byte(task.Definition)
	if task.HasDefinition() && gjson.GetBytes(raw, "steps").IsArray() {
		return Route{Kind: SchemaRouteKind, Definition: DecodeDefinition(task)}
	}
	r.mu.RLock()
	custom, ok := r.custom[task.ID]
	r.mu.RUnlock()
	if ok {
		return Route{Kind: CustomRouteKind, Custom: custom}
	}
	if task.HasDefinition() && isLegacyDefinition(raw) {
		return Route{Kind: LegacyRouteKind}
	}
	return Route{Kind: NoneRouteKind}
}

// Render routes task and renders it with ictx.
func (r *Router) Render(task models.SprintTask, ictx Context) View {
	route := r.Route(task)
	switch route.Kind {
	case SchemaRouteKind:
		view := Render(route.Definition, ictx)
		view.TaskID = task.ID
		if view.Title == "" {
			view.Title = task.Title
		}
		return view
	case CustomRouteKind:
		return route.Custom.Render(task, ictx)
	case LegacyRouteKind:
		return RenderLegacy(task, ictx)
	default:
		return View{Kind: NoneViewKind, TaskID: task.ID, Title: task.Title}
	}
}

// DecodeDefinition decodes the task's schema definition. When the document as
// a whole does not decode, steps are decoded one at a time and the ones that
// fail are dropped, so a single bad step does not hide the task.
func DecodeDefinition(task models.SprintTask) models.TaskDefinition {
	var def models.TaskDefinition
	if err := json.Unmarshal(task.Definition, &def); err == nil {
		return def
	}
	doc := gjson.ParseBytes(task.Definition)
	def = models.TaskDefinition{
		ID:          doc.Get("id").String(),
		Title:       doc.Get("title").String(),
		Description: doc.Get("description").String(),
	}
	doc.Get("steps").ForEach(func(_, s gjson.Result) bool {
		var step models.StepNode
		if err := json.Unmarshal([]byte(s.Raw), &step); err == nil {
			def.Steps = append(def.Steps, step)
		}
		return true
	})
	doc.Get("profileQuestions").ForEach(func(_, q gjson.Result) bool {
		var pq models.ProfileQuestion
		if err := json.Unmarshal([]byte(q.Raw), &pq); err == nil {
			def.ProfileQuestions = append(def.ProfileQuestions, pq)
		}
		return true
	})
	return def
}

// FileUploadStepID is the answer key used by FileUploadRenderer.
const FileUploadStepID = "file"

// FileUploadRenderer renders tasks that only ask for a single document.
func FileUploadRenderer() CustomRenderer {
	return CustomRendererFunc(func(task models.SprintTask, ictx Context) View {
		view := View{
			Kind:      CustomViewKind,
			TaskID:    task.ID,
			Title:     task.Title,
			Component: "file_upload",
			Total:     1,
			Position:  1,
			Answers:   ictx.Answers,
		}
		if answered(ictx.Answers, FileUploadStepID) {
			view.Kind = CompleteViewKind
			view.Position = 0
			return view
		}
		view.Step = &RenderedStep{
			ID:          FileUploadStepID,
			Kind:        UploadStepKind,
			RawType:     "upload",
			Question:    task.Title,
			Description: task.Description,
			Supported:   true,
		}
		return view
	})
}
