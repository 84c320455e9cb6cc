package driver

const (
	SaveSubmissionQuery = `
		MERGE (s:Submission {uuid: $uuid})
		SET s.channel = $channel,
			s.score = $score,
			s.max_score = $max_score,
			s.created_at = $created_at
		RETURN s.uuid AS uuid
	`

	SaveClassNodeQuery = `
		MATCH (s:Submission {uuid: $submission_id})
		MERGE (c:Class {submission_id: $submission_id, name: $name})
		SET c.kind = $kind,
			c.methods = $methods
		MERGE (s)-[:DECLARES]->(c)
		RETURN c.name AS name
	`

	SaveRelationshipEdgeQuery = `
		MATCH (from:Class {submission_id: $submission_id, name: $from})
		MATCH (to:Class {submission_id: $submission_id, name: $to})
		MERGE (from)-[e:RELATES_TO {submission_id: $submission_id, kind: $kind}]->(to)
		RETURN e.kind AS kind
	`

	GetSubmissionClassesQuery = `
		MATCH (s:Submission {uuid: $submission_id})-[:DECLARES]->(c:Class)
		RETURN c.name AS name, c.kind AS kind, c.methods AS methods
	`

	GetSubmissionRelationshipsQuery = `
		MATCH (from:Class {submission_id: $submission_id})-[e:RELATES_TO {submission_id: $submission_id}]->(to:Class)
		RETURN e.kind AS kind, from.name AS from, to.name AS to
	`
)
