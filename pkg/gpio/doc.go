// Package gpio turns raw edges on the appliance's input lines into
// hwevent.Events.
//
// The panel has a quadrature rotary encoder (CLK/DT) with a push switch and a
// separate record button. All lines are active-low with pull-ups: a pressed
// switch reads electrically low.
//
// Each line is watched by its own goroutine. Watchers debounce edges, decode
// them, and push events into a hwevent.Sink. They never block on the sink and
// never touch application state.
package gpio
