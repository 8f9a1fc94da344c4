package toast

import (
	"image"
	"time"

	"github.com/google/uuid"
)

// State é a fase do ciclo de vida de um toast.
type State int

const (
	Hidden State = iota
	FadingIn
	Visible
	FadingOut
)

func (s State) String() string {
	switch s {
	case FadingIn:
		return "fading_in"
	case Visible:
		return "visible"
	case FadingOut:
		return "fading_out"
	default:
		return "hidden"
	}
}

// MarshalText permite serializar o estado como texto.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// next define a única transição válida a partir de cada estado.
var next = map[State]State{
	Hidden:    FadingIn,
	FadingIn:  Visible,
	Visible:   FadingOut,
	FadingOut: Hidden,
}

const (
	Width  = 250
	Height = 150
	Inset  = 20

	DefaultFade = 200 * time.Millisecond
)

// Frame posiciona o toast no canto superior direito do monitor principal
// (coordenadas com origem no topo).
func Frame(display image.Rectangle) image.Rectangle {
	x := display.Max.X - Width - Inset
	y := display.Min.Y + Inset
	return image.Rect(x, y, x+Width, y+Height)
}

// View é o que o renderer recebe a cada mudança.
type View struct {
	ID         uuid.UUID       `json:"id"`
	ArtifactID uuid.UUID       `json:"artifact_id"`
	Path       string          `json:"path"`
	State      State           `json:"state"`
	Dragging   bool            `json:"dragging"`
	Alpha      float64         `json:"alpha"`
	Fade       time.Duration   `json:"fade"`
	Frame      image.Rectangle `json:"frame"`
	Width      int             `json:"thumbnail_width"`
	Height     int             `json:"thumbnail_height"`
}

// Event registra uma transição de estado.
type Event struct {
	ToastID    uuid.UUID `json:"toast_id"`
	ArtifactID uuid.UUID `json:"artifact_id"`
	From       State     `json:"from"`
	To         State     `json:"to"`
	At         time.Time `json:"at"`
}

// DragPayload é o conteúdo transferível exposto durante o arraste.
type DragPayload struct {
	Path          string `json:"path"`
	SuggestedName string `json:"suggested_name"`
}
