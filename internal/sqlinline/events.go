package sqlinline

const QInsertEvent = `--sql da7e81c8-6de7-4bd2-96c7-118800cdd1e5
insert into events(id, name, description, current_amount, total_visitors, admin_password, visitor_password, created_at)
values ($1::uuid, $2::text, $3::text, 0, 0, $4::text, $5::text, $6::timestamptz);
`

const QGetEvent = `--sql 3701ee84-0b54-4699-9ab8-45cf425953ac
select id::text, name, description, current_amount::text, total_visitors, admin_password, visitor_password, created_at
from events
where id = $1::uuid;
`

const QListEvents = `--sql bd90dce6-9025-4fba-8d11-b2e972a27cb1
select id::text, name, description, current_amount::text, total_visitors, admin_password, visitor_password, created_at
from events
order by created_at desc;
`

const QUpdateEvent = `--sql d307e826-ef80-4b33-a52e-d1f02c9ca51e
update events
set name = $2::text,
    description = $3::text,
    admin_password = $4::text,
    visitor_password = $5::text
where id = $1::uuid
returning id::text, name, description, current_amount::text, total_visitors, admin_password, visitor_password, created_at;
`

// QDeleteEvent relies on on delete cascade for donations and donor_forms.
const QDeleteEvent = `--sql 46f38111-e5b0-4fe7-8712-5c6f6a8407fd
delete from events where id = $1::uuid;
`

const QAdjustEventTotals = `--sql 5750e784-8835-46d2-b8c0-423877896600
update events
set current_amount = current_amount + $2::numeric,
    total_visitors = total_visitors + $3::bigint
where id = $1::uuid;
`

const QSetEventTotals = `--sql a7d4ceff-78cc-4955-aeb7-c0186142291a
with written as (
    update events
    set current_amount = $4::numeric,
        total_visitors = $5::bigint
    where id = $1::uuid
      and current_amount = $2::numeric
      and total_visitors = $3::bigint
    returning id
)
select exists(select 1 from events where id = $1::uuid),
       exists(select 1 from written);
`
