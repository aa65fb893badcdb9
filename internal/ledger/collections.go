package ledger

// Collection groups the items minted together under one owner and one earn
// percent. The earn percent is the share of the collection fee the owner keeps;
// the remainder accrues to the platform.
type Collection struct {
	ID          uint64
	Ref         string
	RoyaltyRef  string
	Owner       string
	EarnPercent uint
}

type CollectionRegistry struct {
	byRef  map[string]*Collection
	byID   map[uint64]*Collection
	nextID uint64
}

func NewCollectionRegistry() *CollectionRegistry {
	return &CollectionRegistry{
		byRef: map[string]*Collection{},
		byID:  map[uint64]*Collection{},
	}
}

// RegisterOrGet returns the collection for ref, creating it on first sight.
// The first mint for a ref is authoritative: a repeat registration ignores the
// owner and earn percent it was called with.
func (r *CollectionRegistry) RegisterOrGet(ref, royaltyRef, owner string, earnPercent uint) (*Collection, error) {
	if existing, ok := r.byRef[ref]; ok {
		return existing, nil
	}

	if earnPercent > 100 {
		return nil, ErrInvalidPercent
	}

	r.nextID++
	collection := &Collection{
		ID:          r.nextID,
		Ref:         ref,
		RoyaltyRef:  royaltyRef,
		Owner:       owner,
		EarnPercent: earnPercent,
	}

	r.byRef[ref] = collection
	r.byID[collection.ID] = collection

	return collection, nil
}

func (r *CollectionRegistry) Get(id uint64) (*Collection, error) {
	collection, ok := r.byID[id]
	if !ok {
		return nil, ErrCollectionNotFound
	}

	return collection, nil
}

func (r *CollectionRegistry) Owner(id uint64) (string, error) {
	collection, err := r.Get(id)
	if err != nil {
		return "", err
	}

	return collection.Owner, nil
}

func (r *CollectionRegistry) EarnPercent(id uint64) (uint, error) {
	collection, err := r.Get(id)
	if err != nil {
		return 0, err
	}

	return collection.EarnPercent, nil
}
