package evaluation

import "context"

// LocalCache is the primary durable record of the collection: one value under
// one key. Load returns nil data when nothing has been stored yet.
type LocalCache interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Clear(ctx context.Context) error
}

// Remote is the optional secondary store speaking the GET/PUT array contract.
type Remote interface {
	Fetch(ctx context.Context) ([]Employee, error)
	Push(ctx context.Context, employees []Employee) error
}

type RemoteObserver interface {
	ObserveRemote(op string, err error)
}
