package xmltree

import "fmt"

// EventKind identifies the variant of an Event.
type EventKind int

const (
	// EventStartDocument opens a document; BaseURI may carry its base URI.
	EventStartDocument EventKind = iota
	// EventEndDocument closes the document.
	EventEndDocument
	// EventStartPrefixMapping declares (or, with an empty Namespace,
	// undeclares) a binding for the element about to start.
	EventStartPrefixMapping
	// EventEndPrefixMapping closes a prefix mapping at element end.
	EventEndPrefixMapping
	// EventStartElement opens an element with resolved name and attributes.
	EventStartElement
	// EventEndElement closes the matching open element.
	EventEndElement
	// EventCharacters carries character data, CDATA-bracketed or not.
	EventCharacters
	// EventComment carries a comment.
	EventComment
	// EventProcInst carries a processing instruction.
	EventProcInst
)

// String returns a human-readable kind name.
func (k EventKind) String() string {
	switch k {
	case EventStartDocument:
		return "start-document"
	case EventEndDocument:
		return "end-document"
	case EventStartPrefixMapping:
		return "start-prefix-mapping"
	case EventEndPrefixMapping:
		return "end-prefix-mapping"
	case EventStartElement:
		return "start-element"
	case EventEndElement:
		return "end-element"
	case EventCharacters:
		return "characters"
	case EventComment:
		return "comment"
	case EventProcInst:
		return "processing-instruction"
	default:
		return "unknown"
	}
}

// EventAttr is one attribute as carried by a start-element event: a fully
// resolved name plus the prefix the source saw, and the value.
type EventAttr struct {
	Namespace string
	LocalName string
	Prefix    string
	Value     string
}

// Event is one step of the ingestion and emission protocol. The populated
// fields depend on Kind:
//
//   - StartDocument: BaseURI.
//   - StartPrefixMapping: Prefix, Namespace (empty = undeclaration).
//   - EndPrefixMapping: Prefix.
//   - StartElement: Namespace, LocalName, Prefix, Attrs.
//   - EndElement: Namespace, LocalName, Prefix.
//   - Characters: Text, CData.
//   - Comment: Text.
//   - ProcInst: Target, Data.
//
// Events are plain values; sources may reuse nothing and sinks may retain
// them freely.
type Event struct {
	Kind      EventKind
	BaseURI   string
	Prefix    string
	Namespace string
	LocalName string
	Attrs     []EventAttr
	Text      string
	CData     bool
	Target    string
	Data      string
}

// String renders the event compactly for diagnostics.
func (ev Event) String() string {
	switch ev.Kind {
	case EventStartPrefixMapping:
		return fmt.Sprintf("%s %q=%q", ev.Kind, ev.Prefix, ev.Namespace)
	case EventEndPrefixMapping:
		return fmt.Sprintf("%s %q", ev.Kind, ev.Prefix)
	case EventStartElement, EventEndElement:
		name := ev.LocalName
		if ev.Prefix != "" {
			name = ev.Prefix + ":" + name
		}
		return fmt.Sprintf("%s %s{%s} attrs=%d", ev.Kind, name, ev.Namespace, len(ev.Attrs))
	case EventCharacters:
		return fmt.Sprintf("%s %q cdata=%t", ev.Kind, ev.Text, ev.CData)
	case EventComment:
		return fmt.Sprintf("%s %q", ev.Kind, ev.Text)
	case EventProcInst:
		return fmt.Sprintf("%s %s %q", ev.Kind, ev.Target, ev.Data)
	default:
		return ev.Kind.String()
	}
}

// EventHandler processes events in push mode. A non-nil error aborts the
// producing walk and propagates to its caller unchanged.
type EventHandler func(Event) error
