package domain

import "context"

// Activatable is implemented by entities carrying an active/inactive flag.
type Activatable interface {
	IsActive() bool
	IsInactive() bool
	SetActive(active bool)
}

// ActivationStore persists the active flag of an entity of type T.
type ActivationStore[T Activatable] interface {
	SaveActive(ctx context.Context, entity T) error
}

// Activate marks entity active and persists it immediately.
func Activate[T Activatable](ctx context.Context, store ActivationStore[T], entity T) error {
	return setActive(ctx, store, entity, true)
}

// Deactivate marks entity inactive and persists it immediately.
func Deactivate[T Activatable](ctx context.Context, store ActivationStore[T], entity T) error {
	return setActive(ctx, store, entity, false)
}

// setActive restores the previous flag when the save fails, so the entity
// always reflects what is stored.
func setActive[T Activatable](ctx context.Context, store ActivationStore[T], entity T, active bool) error {
	prev := entity.IsActive()
	entity.SetActive(active)

	if err := store.SaveActive(ctx, entity); err != nil {
		entity.SetActive(prev)
		return err
	}

	return nil
}
