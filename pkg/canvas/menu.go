package canvas

import "github.com/aretw0/warp/pkg/graph"

// Category is the kind of entity a context menu was opened on.
type Category string

const (
	CategoryCanvas Category = "canvas"
	CategoryNode   Category = "node"
	CategoryLink   Category = "link"
	CategoryWindow Category = "window"
	CategoryNote   Category = "note"
)

// Action is a context menu item.
type Action string

const (
	ActionAddNode         Action = "add-node"
	ActionAddWindow       Action = "add-window"
	ActionAddNote         Action = "add-note"
	ActionSaveWorkflow    Action = "save-workflow"
	ActionToggleInterface Action = "toggle-interface"
	ActionEditNode        Action = "edit-node"
	ActionCreateLink      Action = "create-link"
	ActionDeleteNode      Action = "delete-node"
	ActionDeleteLink      Action = "delete-link"
	ActionRenameWindow    Action = "rename-window"
	ActionDeleteWindow    Action = "delete-window"
	ActionEditNote        Action = "edit-note"
	ActionDeleteNote      Action = "delete-note"
)

// Menu is an open context menu.
type Menu struct {
	Category Category
	// Target is the cell the menu was opened on, empty for the canvas.
	Target string
	// At is the model position of the click.
	At    graph.Point
	Items []Action
}

// Has reports whether the menu offers an action.
func (m *Menu) Has(a Action) bool {
	for _, it := range m.Items {
		if it == a {
			return true
		}
	}
	return false
}

// CategoryOf classifies a hit-test result.
func CategoryOf(c *graph.Cell) Category {
	if c == nil {
		return CategoryCanvas
	}
	switch c.Kind {
	case graph.KindNode:
		return CategoryNode
	case graph.KindLink:
		return CategoryLink
	case graph.KindWindow:
		return CategoryWindow
	default:
		return CategoryNote
	}
}

// MenuItems returns the actions offered for a hit-test result.
func MenuItems(c *graph.Cell) []Action {
	switch CategoryOf(c) {
	case CategoryNode:
		items := []Action{ActionToggleInterface}
		if c.Node.Editable {
			items = append(items, ActionEditNode)
		}
		return append(items, ActionCreateLink, ActionDeleteNode)
	case CategoryLink:
		return []Action{ActionDeleteLink}
	case CategoryWindow:
		return []Action{ActionRenameWindow, ActionDeleteWindow}
	case CategoryNote:
		return []Action{ActionEditNote, ActionDeleteNote}
	default:
		return []Action{ActionAddNode, ActionAddWindow, ActionAddNote, ActionSaveWorkflow}
	}
}
