/*
Package serverevents is a client for the HTML5 server-sent events protocol.

A Session is created for an endpoint URL and consumed exactly once, either by
pushing events to callbacks with Listen or by pulling them lazily with Stream:

	s, err := serverevents.New("https://example.com/events")
	if err != nil {
		// the URL is invalid, or its scheme is neither https nor http
	}

	for ev, err := range s.Stream(ctx, false) {
		if err != nil {
			log.Println(err)
			continue
		}
		if data, ok := ev.Value(); ok {
			fmt.Println(ev.Type, data)
		}
	}

Comments and connection notices are never delivered. Events of type "keep-alive"
are delivered only if the consumer asks for them, and an event whose data is
exactly "null" is delivered without data.

The connection itself, including reconnection and backoff, is handled by package
transport. Package urlpolicy checks endpoint URLs against a stricter
"https or localhost" policy and can be used before creating a Session.
*/
package serverevents
