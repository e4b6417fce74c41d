package postgresql

func migrations() map[int]string {
	return map[int]string{
		1: `
			CREATE TABLE workflows (
				id VARCHAR(255) PRIMARY KEY,
				name VARCHAR(255) NOT NULL,
				description TEXT NOT NULL DEFAULT '',
				status VARCHAR(50) NOT NULL CHECK (status IN ('draft', 'published')),
				definition JSONB NOT NULL DEFAULT '{}',
				owner VARCHAR(255),
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				published_at TIMESTAMP WITH TIME ZONE,
				deleted_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_workflows_status ON workflows(status);
			CREATE INDEX idx_workflows_owner ON workflows(owner);
			CREATE INDEX idx_workflows_created_at ON workflows(created_at);
			CREATE INDEX idx_workflows_deleted_at ON workflows(deleted_at);
		`,
		2: `
			CREATE TABLE enrollments (
				id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				lead_data JSONB NOT NULL DEFAULT '{}',
				source VARCHAR(50) NOT NULL CHECK (source IN ('manual-test', 'live')),
				status VARCHAR(50) NOT NULL CHECK (status IN ('in-progress', 'success', 'failed')),
				options JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMP WITH TIME ZONE NOT NULL,
				updated_at TIMESTAMP WITH TIME ZONE NOT NULL,
				completed_at TIMESTAMP WITH TIME ZONE
			);

			CREATE INDEX idx_enrollments_workflow_id ON enrollments(workflow_id);
			CREATE INDEX idx_enrollments_status ON enrollments(status);

			CREATE TABLE enrollment_steps (
				enrollment_id VARCHAR(255) NOT NULL REFERENCES enrollments(id) ON DELETE CASCADE,
				seq INTEGER NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				node_type VARCHAR(50) NOT NULL,
				status VARCHAR(50) NOT NULL CHECK (status IN ('success', 'failed')),
				output JSONB NOT NULL DEFAULT '{}',
				error_message TEXT,
				started_at TIMESTAMP WITH TIME ZONE NOT NULL,
				finished_at TIMESTAMP WITH TIME ZONE NOT NULL,
				PRIMARY KEY (enrollment_id, seq)
			);
		`,
		3: `
			CREATE TABLE resume_schedules (
				enrollment_id VARCHAR(255) PRIMARY KEY,
				workflow_id VARCHAR(255) NOT NULL,
				node_id VARCHAR(255) NOT NULL,
				reason VARCHAR(50) NOT NULL CHECK (reason IN ('wait', 'retry')),
				attempt INTEGER NOT NULL DEFAULT 0,
				due_at TIMESTAMP WITH TIME ZONE NOT NULL,
				created_at TIMESTAMP WITH TIME ZONE NOT NULL
			);

			CREATE INDEX idx_resume_schedules_due_at ON resume_schedules(due_at);
		`,
	}
}
