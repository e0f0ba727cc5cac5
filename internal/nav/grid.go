package nav

import (
	"container/heap"
	"fmt"
	"math"

	"github.com/Syntax-Game-Studio/Chasing-AI-Enemy-NPC/internal/geom"
)

const (
	// DefaultCellSize is the grid resolution used when a profile omits one.
	DefaultCellSize = 1.0
	// DefaultAgentRadius is the clearance kept from obstacles and edges.
	DefaultAgentRadius = 0.4

	// cellInset is the fraction of a cell kept between a projected nearest
	// point and the cell's edges.
	cellInset = 1e-7
)

// Obstacle is an axis-aligned blocker on the X/Z plane. X and Z locate its
// minimum corner.
type Obstacle struct {
	ID    string  `json:"id" jsonschema:"description=Designer facing identifier"`
	X     float64 `json:"x"`
	Z     float64 `json:"z"`
	Width float64 `json:"width" jsonschema:"minimum=0"`
	Depth float64 `json:"depth" jsonschema:"minimum=0"`
}

// GridConfig describes a rectangular walkable area at a fixed surface height.
type GridConfig struct {
	Name        string     `json:"name" jsonschema:"title=Profile name,description=Name agents reference through navProfile,minLength=1"`
	OriginX     float64    `json:"originX"`
	OriginZ     float64    `json:"originZ"`
	Width       float64    `json:"width" jsonschema:"minimum=0,exclusiveMinimum=true"`
	Depth       float64    `json:"depth" jsonschema:"minimum=0,exclusiveMinimum=true"`
	SurfaceY    float64    `json:"surfaceY" jsonschema:"description=Height of the walkable surface"`
	CellSize    float64    `json:"cellSize,omitempty" jsonschema:"minimum=0,exclusiveMinimum=true"`
	AgentRadius float64    `json:"agentRadius,omitempty" jsonschema:"minimum=0"`
	Obstacles   []Obstacle `json:"obstacles,omitempty"`
}

// Normalized fills defaults for omitted fields.
func (cfg GridConfig) Normalized() GridConfig {
	normalized := cfg
	if normalized.CellSize <= 0 {
		normalized.CellSize = DefaultCellSize
	}
	if normalized.AgentRadius <= 0 {
		normalized.AgentRadius = DefaultAgentRadius
	}
	return normalized
}

type gridNeighbor struct {
	col      int
	row      int
	cost     float64
	diagonal bool
}

var gridNeighborOffsets = [...]gridNeighbor{
	{col: 0, row: -1, cost: 1},
	{col: 1, row: 0, cost: 1},
	{col: 0, row: 1, cost: 1},
	{col: -1, row: 0, cost: 1},
	{col: 1, row: -1, cost: math.Sqrt2, diagonal: true},
	{col: 1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: 1, cost: math.Sqrt2, diagonal: true},
	{col: -1, row: -1, cost: math.Sqrt2, diagonal: true},
}

type cell struct {
	col int
	row int
}

// Grid is a Mesh backed by a uniform walkability grid on the X/Z plane.
type Grid struct {
	cfg        GridConfig
	cols, rows int
	walkable   []bool
}

var _ Mesh = (*Grid)(nil)

// NewGrid rasterises cfg into a walkability grid.
func NewGrid(cfg GridConfig) (*Grid, error) {
	cfg = cfg.Normalized()
	if cfg.Width <= 0 || cfg.Depth <= 0 {
		return nil, fmt.Errorf("nav: grid %q: width and depth must be positive", cfg.Name)
	}
	cols := int(math.Ceil(cfg.Width / cfg.CellSize))
	rows := int(math.Ceil(cfg.Depth / cfg.CellSize))
	if cols <= 0 {
		cols = 1
	}
	if rows <= 0 {
		rows = 1
	}
	g := &Grid{
		cfg:      cfg,
		cols:     cols,
		rows:     rows,
		walkable: make([]bool, cols*rows),
	}

	radius := cfg.AgentRadius
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			center := g.center(col, row)
			if center.X < cfg.OriginX+radius || center.X > cfg.OriginX+cfg.Width-radius ||
				center.Z < cfg.OriginZ+radius || center.Z > cfg.OriginZ+cfg.Depth-radius {
				continue
			}
			blocked := false
			for _, obs := range cfg.Obstacles {
				if circleRectOverlap(center.X, center.Z, radius, obs) {
					blocked = true
					break
				}
			}
			if !blocked {
				g.walkable[g.index(col, row)] = true
			}
		}
	}
	return g, nil
}

// Name reports the profile name the grid was built from.
func (g *Grid) Name() string {
	if g == nil {
		return ""
	}
	return g.cfg.Name
}

// Cols reports the number of columns in the grid.
func (g *Grid) Cols() int {
	if g == nil {
		return 0
	}
	return g.cols
}

// Rows reports the number of rows in the grid.
func (g *Grid) Rows() int {
	if g == nil {
		return 0
	}
	return g.rows
}

// Walkable reports whether the cell at col/row can be traversed.
func (g *Grid) Walkable(col, row int) bool {
	if !g.inBounds(col, row) {
		return false
	}
	return g.walkable[g.index(col, row)]
}

// NearestPoint returns the closest walkable point to position, measured on the
// horizontal plane, provided it lies within searchRadius.
func (g *Grid) NearestPoint(position geom.Vec3, searchRadius float64) (geom.Vec3, bool) {
	if g == nil || searchRadius < 0 {
		return geom.Vec3{}, false
	}
	size := g.cfg.CellSize
	inset := size * cellInset
	minCol := int(math.Floor((position.X - searchRadius - g.cfg.OriginX) / size))
	maxCol := int(math.Floor((position.X + searchRadius - g.cfg.OriginX) / size))
	minRow := int(math.Floor((position.Z - searchRadius - g.cfg.OriginZ) / size))
	maxRow := int(math.Floor((position.Z + searchRadius - g.cfg.OriginZ) / size))

	best := math.MaxFloat64
	var bestPoint geom.Vec3
	found := false
	for row := max(minRow, 0); row <= min(maxRow, g.rows-1); row++ {
		for col := max(minCol, 0); col <= min(maxCol, g.cols-1); col++ {
			if !g.walkable[g.index(col, row)] {
				continue
			}
			// Keep the point strictly inside the cell so locate bins it
			// back into this walkable cell rather than a neighbour.
			minX := g.cfg.OriginX + float64(col)*size
			minZ := g.cfg.OriginZ + float64(row)*size
			px := geom.Clamp(position.X, minX+inset, minX+size-inset)
			pz := geom.Clamp(position.Z, minZ+inset, minZ+size-inset)
			dist := math.Hypot(px-position.X, pz-position.Z)
			if dist <= searchRadius && dist < best {
				best = dist
				bestPoint = geom.Vec3{X: px, Y: g.cfg.SurfaceY, Z: pz}
				found = true
			}
		}
	}
	return bestPoint, found
}

// Path runs A* from the cell under from to the cell under to. The returned
// waypoints skip the start cell and finish exactly at to, lifted onto the
// surface.
func (g *Grid) Path(from, to geom.Vec3) ([]geom.Vec3, bool) {
	if g == nil {
		return nil, false
	}
	start, ok := g.locate(from)
	if !ok {
		return nil, false
	}
	goal, ok := g.locate(to)
	if !ok || !g.walkable[g.index(goal.col, goal.row)] {
		return nil, false
	}
	if !g.walkable[g.index(start.col, start.row)] {
		start, ok = g.closestWalkable(start)
		if !ok {
			return nil, false
		}
	}

	end := geom.Vec3{X: to.X, Y: g.cfg.SurfaceY, Z: to.Z}
	nodes, ok := g.astar(start, goal)
	if !ok || len(nodes) == 0 {
		return nil, false
	}
	if len(nodes) == 1 {
		return []geom.Vec3{end}, true
	}
	path := make([]geom.Vec3, 0, len(nodes))
	for _, node := range nodes[1:] {
		path = append(path, g.center(node.col, node.row))
	}
	path[len(path)-1] = end
	return path, true
}

func (g *Grid) inBounds(col, row int) bool {
	return g != nil && col >= 0 && row >= 0 && col < g.cols && row < g.rows
}

func (g *Grid) index(col, row int) int {
	return row*g.cols + col
}

func (g *Grid) center(col, row int) geom.Vec3 {
	return geom.Vec3{
		X: g.cfg.OriginX + (float64(col)+0.5)*g.cfg.CellSize,
		Y: g.cfg.SurfaceY,
		Z: g.cfg.OriginZ + (float64(row)+0.5)*g.cfg.CellSize,
	}
}

func (g *Grid) locate(p geom.Vec3) (cell, bool) {
	if g == nil || g.cols == 0 || g.rows == 0 {
		return cell{}, false
	}
	localX := p.X - g.cfg.OriginX
	localZ := p.Z - g.cfg.OriginZ
	if localX < 0 || localZ < 0 || localX > g.cfg.Width || localZ > g.cfg.Depth {
		return cell{}, false
	}
	col := min(int(localX/g.cfg.CellSize), g.cols-1)
	row := min(int(localZ/g.cfg.CellSize), g.rows-1)
	return cell{col: col, row: row}, true
}

func (g *Grid) canTraverseDiagonal(current cell, delta gridNeighbor) bool {
	if !delta.diagonal {
		return true
	}
	return g.Walkable(current.col+delta.col, current.row) && g.Walkable(current.col, current.row+delta.row)
}

func (g *Grid) closestWalkable(from cell) (cell, bool) {
	if !g.inBounds(from.col, from.row) {
		return cell{}, false
	}
	visited := map[int]struct{}{g.index(from.col, from.row): {}}
	queue := []cell{from}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if g.walkable[g.index(current.col, current.row)] {
			return current, true
		}
		for _, delta := range gridNeighborOffsets {
			next := cell{col: current.col + delta.col, row: current.row + delta.row}
			if !g.inBounds(next.col, next.row) {
				continue
			}
			idx := g.index(next.col, next.row)
			if _, seen := visited[idx]; seen {
				continue
			}
			visited[idx] = struct{}{}
			queue = append(queue, next)
		}
	}
	return cell{}, false
}

func (g *Grid) heuristic(a, b cell) float64 {
	dx := math.Abs(float64(a.col - b.col))
	dz := math.Abs(float64(a.row - b.row))
	if dx > dz {
		return dx + (math.Sqrt2-1)*dz
	}
	return dz + (math.Sqrt2-1)*dx
}

type pathNode struct {
	point  cell
	g      float64
	f      float64
	index  int
	parent *pathNode
}

type pathQueue []*pathNode

func (pq pathQueue) Len() int { return len(pq) }

func (pq pathQueue) Less(i, j int) bool { return pq[i].f < pq[j].f }

func (pq pathQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *pathQueue) Push(x any) {
	item := x.(*pathNode)
	item.index = len(*pq)
	*pq = append(*pq, item)
}

func (pq *pathQueue) Pop() any {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

func (g *Grid) astar(start, goal cell) ([]cell, bool) {
	open := &pathQueue{}
	heap.Init(open)
	heap.Push(open, &pathNode{point: start, f: g.heuristic(start, goal)})
	gScore := map[int]float64{g.index(start.col, start.row): 0}
	closed := make(map[int]struct{})

	for open.Len() > 0 {
		current := heap.Pop(open).(*pathNode)
		currIdx := g.index(current.point.col, current.point.row)
		if _, seen := closed[currIdx]; seen {
			continue
		}
		closed[currIdx] = struct{}{}
		if current.point == goal {
			return reconstructPath(current), true
		}

		for _, delta := range gridNeighborOffsets {
			if !g.canTraverseDiagonal(current.point, delta) {
				continue
			}
			next := cell{col: current.point.col + delta.col, row: current.point.row + delta.row}
			if !g.Walkable(next.col, next.row) {
				continue
			}
			idx := g.index(next.col, next.row)
			if _, seen := closed[idx]; seen {
				continue
			}
			tentative := current.g + delta.cost
			if prev, ok := gScore[idx]; ok && tentative >= prev {
				continue
			}
			gScore[idx] = tentative
			heap.Push(open, &pathNode{
				point:  next,
				g:      tentative,
				f:      tentative + g.heuristic(next, goal),
				parent: current,
			})
		}
	}
	return nil, false
}

func reconstructPath(end *pathNode) []cell {
	path := make([]cell, 0)
	for node := end; node != nil; node = node.parent {
		path = append(path, node.point)
	}
	for i := 0; i < len(path)/2; i++ {
		j := len(path) - 1 - i
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func circleRectOverlap(cx, cz, radius float64, obs Obstacle) bool {
	closestX := geom.Clamp(cx, obs.X, obs.X+obs.Width)
	closestZ := geom.Clamp(cz, obs.Z, obs.Z+obs.Depth)
	dx := cx - closestX
	dz := cz - closestZ
	return dx*dx+dz*dz < radius*radius
}
