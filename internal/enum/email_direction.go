package enum

type EmailDirection string

const (
	EmailIncoming EmailDirection = "incoming"
	EmailOutgoing EmailDirection = "outgoing"
)

func (t EmailDirection) String() string {
	return string(t)
}
