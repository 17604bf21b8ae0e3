package actor

// InputBase can be embedded in a struct to make it an Input.
type InputBase struct{}

func (InputBase) isActorInput() {}

// EffectBase can be embedded in a struct to make it an Effect.
type EffectBase struct{}

func (EffectBase) isActorEffect() {}
