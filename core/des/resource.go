package des

import "fmt"

// Request is a claim on one server of a Resource.
type Request struct {
	res         *Resource
	onGrant     func()
	granted     bool
	released    bool
	cancelled   bool
	RequestedAt float64
	GrantedAt   float64
}

// Granted reports whether the request holds a server.
func (r *Request) Granted() bool { return r.granted && !r.released }

// Wait returns the time spent queueing, valid once granted.
func (r *Request) Wait() float64 { return r.GrantedAt - r.RequestedAt }

// Resource is a FIFO multi-server resource.
type Resource struct {
	Name     string
	env      *Environment
	capacity int
	users    int
	queue    []*Request

	lastChange float64
	busyArea   float64
	queueArea  float64
	maxQueue   int
	served     int
}

// NewResource creates a resource with the given number of servers.
func NewResource(env *Environment, name string, capacity int) (*Resource, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("resource %s: capacity must be positive", name)
	}
	return &Resource{Name: name, env: env, capacity: capacity, lastChange: env.Now()}, nil
}

// Capacity returns the number of servers.
func (r *Resource) Capacity() int { return r.capacity }

// Count returns the number of servers in use.
func (r *Resource) Count() int { return r.users }

// QueueLen returns the number of waiting requests.
func (r *Resource) QueueLen() int { return len(r.queue) }

// Load returns users plus waiting requests.
func (r *Resource) Load() int { return r.users + len(r.queue) }

// Idle reports whether at least one server is free.
func (r *Resource) Idle() bool { return r.users < r.capacity }

// Request asks for a server. onGrant is called through the scheduler once a
// server is assigned, immediately when one is free.
func (r *Resource) Request(onGrant func()) *Request {
	req := &Request{res: r, onGrant: onGrant, RequestedAt: r.env.Now()}
	r.account()
	if r.users < r.capacity && len(r.queue) == 0 {
		r.grant(req)
		return req
	}
	r.queue = append(r.queue, req)
	if len(r.queue) > r.maxQueue {
		r.maxQueue = len(r.queue)
	}
	return req
}

// Release frees the server held by req and serves the next waiting request.
func (r *Resource) Release(req *Request) error {
	if req == nil || req.res != r {
		return fmt.Errorf("resource %s: foreign request", r.Name)
	}
	if !req.granted || req.released {
		return fmt.Errorf("resource %s: request not holding a server", r.Name)
	}
	r.account()
	req.released = true
	r.users--
	r.served++
	if len(r.queue) > 0 {
		next := r.queue[0]
		r.queue = r.queue[1:]
		r.grant(next)
	}
	return nil
}

// Cancel removes a waiting request from the queue.
func (r *Resource) Cancel(req *Request) bool {
	for i, q := range r.queue {
		if q == req {
			r.account()
			r.queue = append(r.queue[:i], r.queue[i+1:]...)
			req.cancelled = true
			return true
		}
	}
	return false
}

func (r *Resource) grant(req *Request) {
	r.users++
	req.granted = true
	req.GrantedAt = r.env.Now()
	if req.onGrant != nil {
		r.env.Schedule(r.env.Now(), req.onGrant)
	}
}

func (r *Resource) account() {
	now := r.env.Now()
	dt := now - r.lastChange
	if dt > 0 {
		r.busyArea += dt * float64(r.users)
		r.queueArea += dt * float64(len(r.queue))
	}
	r.lastChange = now
}

// Stats summarises the time-weighted occupancy of a resource.
type Stats struct {
	Name        string  `json:"name"`
	Capacity    int     `json:"capacity"`
	Served      int     `json:"served"`
	Utilization float64 `json:"utilization"`
	MeanQueue   float64 `json:"mean_queue"`
	MaxQueue    int     `json:"max_queue"`
}

// Stats returns occupancy statistics over [0, at].
func (r *Resource) Stats(at float64) Stats {
	busy, queue := r.busyArea, r.queueArea
	if dt := at - r.lastChange; dt > 0 {
		busy += dt * float64(r.users)
		queue += dt * float64(len(r.queue))
	}
	s := Stats{Name: r.Name, Capacity: r.capacity, Served: r.served, MaxQueue: r.maxQueue}
	if at > 0 {
		s.Utilization = busy / (at * float64(r.capacity))
		s.MeanQueue = queue / at
	}
	return s
}
