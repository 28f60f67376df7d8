package graph

// Layout defaults.
const (
	DefaultLanes       = 3
	DefaultColumnWidth = 260
	DefaultRowHeight   = 150
)

// Position is a node's grid slot and pixel offset.
type Position struct {
	Column int `json:"column"`
	Row    int `json:"row"`
	X      int `json:"x"`
	Y      int `json:"y"`
}

// Options configures the grid layout.
type Options struct {
	Lanes       int
	ColumnWidth int
	RowHeight   int
}

// Option mutates Options.
type Option func(*Options)

// WithLanes sets the number of columns. Values below 1 keep the default.
func WithLanes(n int) Option {
	return func(o *Options) {
		if n >= 1 {
			o.Lanes = n
		}
	}
}

// WithSpacing sets the pixel width of a column and height of a row.
func WithSpacing(column, row int) Option {
	return func(o *Options) {
		if column > 0 {
			o.ColumnWidth = column
		}
		if row > 0 {
			o.RowHeight = row
		}
	}
}

func newOptions(opts []Option) Options {
	o := Options{
		Lanes:       DefaultLanes,
		ColumnWidth: DefaultColumnWidth,
		RowHeight:   DefaultRowHeight,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// layout places nodes on a grid in their current order: column is the index
// modulo the lane count, row the index divided by it.
func layout(nodes []Node, o Options) {
	for i := range nodes {
		col, row := i%o.Lanes, i/o.Lanes
		nodes[i].Position = Position{
			Column: col,
			Row:    row,
			X:      col * o.ColumnWidth,
			Y:      row * o.RowHeight,
		}
	}
}
