// Package intent routes questions to provider groups by keyword.
//
// Classification is plain substring containment over fixed tables. It is
// deterministic and intentionally crude: "rain" matches "train", and a
// question may carry several tags at once. An empty Set means the question
// goes to the general-knowledge providers only.
package intent
