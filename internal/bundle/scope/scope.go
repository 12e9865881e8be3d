// Package scope resolves scoped pointers against a closed set of named data
// sources.
//
// A scoped pointer's first segment names the scope whose root document the
// rest of the pointer resolves against. Pointers whose first segment is not a
// scope name resolve in full against the local scope, which holds
// self-referential data produced during assembly. The scope set is a closed,
// versioned contract with whatever supplies the source documents.
package scope

import (
	"fmt"
	"strings"

	"github.com/Daakon/stone-caster-2-sub004/internal/bundle/pointer"
)

// Name identifies one data source root within a context.
type Name string

const (
	// World holds the world reference document.
	World Name = "world"
	// Adventure holds the active adventure document.
	Adventure Name = "adventure"
	// Scenario holds the scenario document the adventure started from.
	Scenario Name = "scenario"
	// Roster holds the character roster for the adventure.
	Roster Name = "roster"
	// Contract holds the player-facing contract document.
	Contract Name = "contract"
	// Player holds the player profile document.
	Player Name = "player"
	// Session holds transient per-session data.
	Session Name = "session"
	// GameState holds the mutable game state document.
	GameState Name = "state"
	// Local is the default scope for self-referential assembly data.
	Local Name = "local"
)

var knownScopes = map[Name]bool{
	World:     true,
	Adventure: true,
	Scenario:  true,
	Roster:    true,
	Contract:  true,
	Player:    true,
	Session:   true,
	GameState: true,
	Local:     true,
}

// Valid reports whether name belongs to the closed scope set.
func Valid(name Name) bool {
	return knownScopes[name]
}

// Names returns the closed scope set in a stable order.
func Names() []Name {
	return []Name{World, Adventure, Scenario, Roster, Contract, Player, Session, GameState, Local}
}

// Context holds the read-only scope roots for one assembly. A context is
// built fresh per assembly call and never shared across calls.
type Context struct {
	roots map[Name]any
}

// NewContext returns an empty context.
func NewContext() *Context {
	return &Context{roots: map[Name]any{}}
}

// SetRoot registers root as the document for the named scope. Names outside
// the closed scope set are rejected.
func (c *Context) SetRoot(name Name, root any) error {
	if !Valid(name) {
		return fmt.Errorf("unknown scope %q", name)
	}
	c.roots[name] = root
	return nil
}

// Root returns the registered root for a scope.
func (c *Context) Root(name Name) (any, bool) {
	root, ok := c.roots[name]
	return root, ok
}

// Resolve resolves a scoped pointer to a value. A pointer whose first segment
// is a scope name resolves the remainder against that scope's root; an empty
// remainder yields the root itself. A scope name with no registered root is
// not found. Any other pointer resolves in full against the local scope.
func (c *Context) Resolve(ptr string) (any, bool) {
	segments, err := pointer.Parse(ptr)
	if err != nil {
		return nil, false
	}
	if len(segments) == 0 {
		return c.Root(Local)
	}

	name := Name(segments[0])
	if Valid(name) {
		root, ok := c.roots[name]
		if !ok {
			return nil, false
		}
		if len(segments) == 1 {
			return root, true
		}
		return pointer.Get(root, "/"+strings.Join(segments[1:], "/"))
	}

	local, ok := c.roots[Local]
	if !ok {
		return nil, false
	}
	return pointer.Get(local, ptr)
}
