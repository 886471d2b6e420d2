package join

// activePlan is a plan bound to concrete source observers for one
// coordinator. All methods run inside the coordinator's gate.
type activePlan struct {
	coord     *coordinator
	id        string
	observers []joinObserver // pattern order
	fire      func(args []any)
	retired   bool
}

// match consumes one value from every source and fires the reaction when
// all of them have a value at the head of their queue.
//
// A Completed marker at the head of any queue retires the plan instead. The
// marker is never dequeued: other plans sharing that source see it too.
func (p *activePlan) match() {
	if p.retired || p.coord.state != StateActive {
		return
	}

	for _, o := range p.observers {
		if o.queueLen() == 0 {
			return
		}
	}

	for _, o := range p.observers {
		if o.headKind() == KindCompleted {
			p.retire()
			return
		}
	}

	// All heads are values; take them all before anything else can run.
	args := make([]any, len(p.observers))
	for i, o := range p.observers {
		args[i] = o.take()
	}

	p.coord.record(TraceEvent{Kind: EventFired, Plan: p.id, Values: args})
	p.fire(args)
}

// retire unregisters the plan from every source, disposing sources left
// without plans, then tells the coordinator. Runs at most once.
func (p *activePlan) retire() {
	if p.retired {
		return
	}
	p.retired = true

	for _, o := range p.observers {
		o.removeActivePlan(p)
	}
	p.coord.deactivate(p)
}
