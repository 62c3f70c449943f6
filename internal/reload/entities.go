package reload

// entityHooks adapts one entity kind (objects, behaviors, effects, layers,
// shared data) to the shared three-way reconciliation: removed entities are
// destroyed, added ones created, kept-but-changed ones patched in place.
// Renames are not detectable, since the name is the identity key: a rename
// shows up as remove+add, and with it the loss of any transient runtime
// state on that entity.
type entityHooks[T any] struct {
	kind    string
	key     func(T) string
	equal   func(T, T) bool
	create  func(T) error
	destroy func(string) error
	patch   func(old, updated T) error
}

// reconcileEntityList classifies old vs new by key and applies the hook for
// each class. A failing hook logs an error and never aborts the remaining
// entities. New-list order drives creation order.
func reconcileEntityList[T any](log *Log, scope string, hooks entityHooks[T], old, updated []T) {
	oldByKey := make(map[string]T, len(old))
	for _, entity := range old {
		oldByKey[hooks.key(entity)] = entity
	}
	newByKey := make(map[string]T, len(updated))
	for _, entity := range updated {
		newByKey[hooks.key(entity)] = entity
	}

	for _, entity := range old {
		key := hooks.key(entity)
		if _, kept := newByKey[key]; kept {
			continue
		}
		if err := hooks.destroy(key); err != nil {
			log.Errorf("%s: failed to remove %s %q: %v", scope, hooks.kind, key, err)
			continue
		}
		log.Infof("%s: removed %s %q", scope, hooks.kind, key)
	}

	for _, entity := range updated {
		key := hooks.key(entity)
		previous, existed := oldByKey[key]
		if !existed {
			if err := hooks.create(entity); err != nil {
				log.Errorf("%s: failed to add %s %q: %v", scope, hooks.kind, key, err)
				continue
			}
			log.Infof("%s: added %s %q", scope, hooks.kind, key)
			continue
		}
		if hooks.equal(previous, entity) {
			continue
		}
		if err := hooks.patch(previous, entity); err != nil {
			log.Errorf("%s: failed to update %s %q: %v", scope, hooks.kind, key, err)
		}
	}
}
