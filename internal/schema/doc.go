// Package schema holds the class metadata the DQL compiler resolves field
// paths against.
//
// A Registry maps object classes to Documentum types and their members to
// attribute columns. Members are classified by RelationType and an
// embedded flag; embedded single-valued members are flattened into the
// owner's columns.
//
// Schemas are written in CUE:
//
//	class: Person: {
//	    type: "dm_person"
//	    members: {
//	        lastName: {}                          // column last_name
//	        age:      "person_age"                // explicit column
//	        address:  {embedded: "Address"}       // flattened
//	        employer: {relation: "many_to_one_uni", target: "Company"}
//	        score:    {persistent: false}         // not stored
//	    }
//	}
//
// A Registry is read-only after loading and may be shared by concurrent
// compilations.
package schema
