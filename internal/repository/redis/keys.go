package redis

const (
	keyProduct         = "product:%d"
	keyIdemOrderCreate = "idem:order:create:%s:%s" // customer id, idempotency key
)
