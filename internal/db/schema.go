package db

// SchemaSQL contains the database schema initialization SQL.
const SchemaSQL = `
    -- ==========================================================================
    -- COURSE_CONFIG TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS course_config SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS topic ON course_config TYPE string ASSERT string::len($value) > 0;
    DEFINE FIELD IF NOT EXISTS context ON course_config TYPE string ASSERT string::len($value) > 0;
    DEFINE FIELD IF NOT EXISTS depth ON course_config TYPE int ASSERT $value >= 1 AND $value <= 5;
    DEFINE FIELD IF NOT EXISTS owner_id ON course_config TYPE string;
    DEFINE FIELD IF NOT EXISTS created ON course_config TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS course_config_owner ON course_config FIELDS owner_id;

    -- ==========================================================================
    -- SYLLABUS TABLE (1:1 with course_config)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS syllabus SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS course_id ON syllabus TYPE string;
    DEFINE FIELD IF NOT EXISTS status ON syllabus TYPE string
        ASSERT $value IN ['pending', 'generating', 'completed', 'failed'];
    DEFINE FIELD IF NOT EXISTS modules ON syllabus TYPE array<object> FLEXIBLE DEFAULT [];
    DEFINE FIELD IF NOT EXISTS keywords ON syllabus TYPE array<string> DEFAULT [];
    DEFINE FIELD IF NOT EXISTS error ON syllabus TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON syllabus TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON syllabus TYPE datetime DEFAULT time::now() VALUE time::now();

    DEFINE INDEX IF NOT EXISTS syllabus_course ON syllabus FIELDS course_id UNIQUE;

    -- ==========================================================================
    -- GENERATION_JOB TABLE
    -- ==========================================================================
    -- active_key collapses all non-terminal jobs for a target onto one key;
    -- the unique index makes "at most one non-terminal job per target" a
    -- storage-layer guarantee instead of a read-then-write race.
    DEFINE TABLE IF NOT EXISTS generation_job SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS target ON generation_job TYPE string;
    DEFINE FIELD IF NOT EXISTS kind ON generation_job TYPE string
        ASSERT $value IN ['syllabus', 'topic_content'];
    DEFINE FIELD IF NOT EXISTS status ON generation_job TYPE string
        ASSERT $value IN ['pending', 'processing', 'completed', 'failed'];
    DEFINE FIELD IF NOT EXISTS error ON generation_job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS result_ref ON generation_job TYPE option<string>;
    DEFINE FIELD IF NOT EXISTS created ON generation_job TYPE datetime DEFAULT time::now();
    DEFINE FIELD IF NOT EXISTS updated ON generation_job TYPE datetime DEFAULT time::now() VALUE time::now();
    DEFINE FIELD IF NOT EXISTS active_key ON generation_job
        VALUE IF status IN ['pending', 'processing']
            THEN string::concat(target, '|active')
            ELSE string::concat(target, '|', record::id(id))
        END;

    DEFINE INDEX IF NOT EXISTS generation_job_target ON generation_job FIELDS target;
    DEFINE INDEX IF NOT EXISTS generation_job_active ON generation_job FIELDS active_key UNIQUE;

    -- ==========================================================================
    -- CONTENT_ITEM TABLE (expanded topic content)
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS content_item SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS course_id ON content_item TYPE string;
    DEFINE FIELD IF NOT EXISTS module_index ON content_item TYPE int ASSERT $value >= 0;
    DEFINE FIELD IF NOT EXISTS topic_index ON content_item TYPE int ASSERT $value >= 0;
    DEFINE FIELD IF NOT EXISTS content_type ON content_item TYPE string DEFAULT 'text';
    -- Canonically an object {content: ...}; legacy rows hold a bare string.
    DEFINE FIELD IF NOT EXISTS payload ON content_item FLEXIBLE;
    DEFINE FIELD IF NOT EXISTS created ON content_item TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS content_item_address ON content_item
        FIELDS course_id, module_index, topic_index, content_type UNIQUE;

    -- ==========================================================================
    -- ENROLLMENT TABLE
    -- ==========================================================================
    DEFINE TABLE IF NOT EXISTS enrollment SCHEMAFULL;
    DEFINE FIELD IF NOT EXISTS user_id ON enrollment TYPE string;
    DEFINE FIELD IF NOT EXISTS course_id ON enrollment TYPE string;
    DEFINE FIELD IF NOT EXISTS current_module_index ON enrollment TYPE int DEFAULT 0;
    DEFINE FIELD IF NOT EXISTS completed_topics ON enrollment TYPE array<object> FLEXIBLE DEFAULT [];
    DEFINE FIELD IF NOT EXISTS completed ON enrollment TYPE bool DEFAULT false;
    DEFINE FIELD IF NOT EXISTS enrolled_at ON enrollment TYPE datetime DEFAULT time::now();

    DEFINE INDEX IF NOT EXISTS enrollment_user_course ON enrollment FIELDS user_id, course_id UNIQUE;
`
