// Package des provides the cooperative discrete-event scheduler used by the
// depot simulation. An Environment wraps an akita serial engine and drives
// callbacks in simulated minutes; a Resource models a limited-capacity FIFO
// queue such as a bank of chargers.
package des
