package evaluator

import "mica/internal/value"

// environment binds names to boxed values for one lexical scope.
// Resolution walks outward; analysis has already rejected unbound names,
// so a miss here is an internal bug.
type environment struct {
	vars  map[string]value.Value
	outer *environment
}

func newEnvironment(outer *environment) *environment {
	return &environment{vars: make(map[string]value.Value), outer: outer}
}

func (e *environment) get(name string) (value.Value, bool) {
	for env := e; env != nil; env = env.outer {
		if v, ok := env.vars[name]; ok {
			return v, true
		}
	}
	return value.Value{}, false
}

func (e *environment) define(name string, v value.Value) {
	e.vars[name] = v
}

// set overwrites the nearest existing binding.
func (e *environment) set(name string, v value.Value) bool {
	for env := e; env != nil; env = env.outer {
		if _, ok := env.vars[name]; ok {
			env.vars[name] = v
			return true
		}
	}
	return false
}
